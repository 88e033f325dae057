package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/postpilot/postpilot-backend/internal/platform/openai"
)

func mustSetJSON(t *testing.T, kv *fakeContextStore, key string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	kv.mu.Lock()
	kv.json[key] = string(raw)
	kv.mu.Unlock()
}

func messageText(req openai.ChatRequest) string {
	var sb strings.Builder
	for _, msg := range req.Messages {
		for _, part := range msg.Parts {
			sb.WriteString(part.Text)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func requestByTemp(t *testing.T, model *fakeChatModel, temp float64) openai.ChatRequest {
	t.Helper()
	model.mu.Lock()
	defer model.mu.Unlock()
	for _, req := range model.requests {
		if req.Temperature != nil && *req.Temperature == temp {
			return req
		}
	}
	t.Fatalf("no request issued at temperature %v", temp)
	return openai.ChatRequest{}
}

func TestGenerateDraftsThreeVariants(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(t)
	deps.model.byTemp = map[float64]string{
		0.7: "close variant\n",
		0.8: "angled variant",
		0.9: "<current_post>creative variant</current_post>",
	}

	variants, err := svc.GenerateDrafts(context.Background(), GenerateRequest{
		SessionID:    "session-1",
		AccountEmail: "user@example.com",
		Message:      "make it punchier",
		PostText:     "original post text",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(variants))
	}

	// Variant order matches temperature order, sanitized.
	wantTexts := []string{"close variant", "angled variant", "creative variant"}
	seenIDs := map[string]bool{}
	for i, v := range variants {
		if v.ImprovedText != wantTexts[i] {
			t.Fatalf("variant %d: got=%q want=%q", i, v.ImprovedText, wantTexts[i])
		}
		if v.ID == "" || seenIDs[v.ID] {
			t.Fatalf("variant %d: missing or duplicate id %q", i, v.ID)
		}
		seenIDs[v.ID] = true
		if len(v.Diffs) == 0 {
			t.Fatalf("variant %d: expected diff ops", i)
		}
	}

	// One call per temperature, strictly increasing.
	for _, temp := range svc.cfg.Drafts.Temperatures {
		requestByTemp(t, deps.model, temp)
	}
}

func TestGenerateDraftsAllOrNothing(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(t)
	deps.model.byTemp = map[float64]string{0.7: "ok", 0.9: "ok"}
	deps.model.err = fmt.Errorf("model unavailable")
	deps.model.failTemp = 0.8

	variants, err := svc.GenerateDrafts(context.Background(), GenerateRequest{
		SessionID: "session-1",
		PostText:  "post",
	})
	if err == nil {
		t.Fatal("expected error when one variant fails")
	}
	if variants != nil {
		t.Fatalf("expected no variants on failure, got %+v", variants)
	}
}

func TestGenerateDraftsStyleProfile(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(t)
	deps.model.byTemp = map[float64]string{0.7: "a", 0.8: "b", 0.9: "c"}
	mustSetJSON(t, deps.kv, styleProfileKey("user@example.com"), StyleProfile{
		Overall:     "dry and direct",
		FirstThird:  "earliest posts were playful",
		SecondThird: "middle posts got technical",
	})

	_, err := svc.GenerateDrafts(context.Background(), GenerateRequest{
		SessionID:    "session-1",
		AccountEmail: "user@example.com",
		PostText:     "post",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Each variant gets its own style slice, the last one falling back to
	// the overall description.
	cases := []struct {
		temp    float64
		segment string
	}{
		{0.7, "earliest posts were playful"},
		{0.8, "middle posts got technical"},
		{0.9, "dry and direct"},
	}
	for _, tc := range cases {
		text := messageText(requestByTemp(t, deps.model, tc.temp))
		if !strings.Contains(text, tc.segment) {
			t.Fatalf("temp %v: style segment %q missing from prompt:\n%s", tc.temp, tc.segment, text)
		}
		if !strings.Contains(text, styleMatchSuffix) {
			t.Fatalf("temp %v: style match suffix missing from prompt:\n%s", tc.temp, text)
		}
	}
}

func TestGenerateDraftsNoStyleProfile(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(t)
	deps.model.byTemp = map[float64]string{0.7: "a", 0.8: "b", 0.9: "c"}

	_, err := svc.GenerateDrafts(context.Background(), GenerateRequest{
		SessionID:    "session-1",
		AccountEmail: "user@example.com",
		PostText:     "post",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := messageText(requestByTemp(t, deps.model, 0.7))
	if strings.Contains(text, "writing style:") {
		t.Fatalf("unexpected style message without profile:\n%s", text)
	}
	if strings.Contains(text, styleMatchSuffix) {
		t.Fatalf("unexpected style suffix without profile:\n%s", text)
	}
	for _, instruction := range variantInstructions {
		if strings.Contains(text, instruction) {
			t.Fatalf("unexpected variant instruction without profile:\n%s", text)
		}
	}

	// Without a profile the three sequences are identical; only the
	// temperatures differ.
	base := requestByTemp(t, deps.model, 0.7).Messages
	for _, temp := range []float64{0.8, 0.9} {
		if got := requestByTemp(t, deps.model, temp).Messages; !reflect.DeepEqual(got, base) {
			t.Fatalf("temp %v message sequence diverged:\ngot=%+v\nwant=%+v", temp, got, base)
		}
	}
}

func TestGenerateDraftsProfileReadFailureIsSoft(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(t)
	deps.model.byTemp = map[float64]string{0.7: "a", 0.8: "b", 0.9: "c"}
	deps.kv.getErr = fmt.Errorf("redis down")

	variants, err := svc.GenerateDrafts(context.Background(), GenerateRequest{
		SessionID:    "session-1",
		AccountEmail: "user@example.com",
		PostText:     "post",
	})
	if err != nil {
		t.Fatalf("profile read failure must not block drafting: %v", err)
	}
	if len(variants) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(variants))
	}
}

func TestGenerateDraftsQueueReadFailureIsHard(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(t)
	deps.model.byTemp = map[float64]string{0.7: "a", 0.8: "b", 0.9: "c"}
	deps.kv.listErr = fmt.Errorf("redis down")

	_, err := svc.GenerateDrafts(context.Background(), GenerateRequest{
		SessionID: "session-1",
		PostText:  "post",
	})
	if err == nil {
		t.Fatal("expected error when queue reads fail")
	}
}

func TestGenerateDraftsConsumesSessionQueues(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(t)
	deps.model.byTemp = map[float64]string{0.7: "a", 0.8: "b", 0.9: "c"}

	partRaw, _ := json.Marshal(ContentPart{Kind: PartText, Text: "<attached_docx>doc body</attached_docx>"})
	pageRaw, _ := json.Marshal(PageContent{URL: "https://example.com", Title: "Example", Content: "page body"})
	if err := deps.kv.ListPush(context.Background(), unseenAttachmentsKey("session-1"), string(partRaw)); err != nil {
		t.Fatalf("seed queue: %v", err)
	}
	if err := deps.kv.ListPush(context.Background(), websiteContentsKey("session-1"), string(pageRaw)); err != nil {
		t.Fatalf("seed queue: %v", err)
	}

	_, err := svc.GenerateDrafts(context.Background(), GenerateRequest{
		SessionID: "session-1",
		PostText:  "post",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Queued context is folded into every variant's prompt.
	text := messageText(requestByTemp(t, deps.model, 0.8))
	if !strings.Contains(text, "doc body") || !strings.Contains(text, "page body") {
		t.Fatalf("queued context missing from prompt:\n%s", text)
	}

	// And consumed: the next request starts from empty queues.
	for _, key := range []string{unseenAttachmentsKey("session-1"), websiteContentsKey("session-1")} {
		vals, err := deps.kv.ListRange(context.Background(), key)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(vals) != 0 {
			t.Fatalf("queue %q not cleared: %v", key, vals)
		}
	}
}

func TestSaveStyleProfileRoundtrip(t *testing.T) {
	t.Parallel()
	svc, deps := newTestService(t)
	deps.model.byTemp = map[float64]string{0.7: "a", 0.8: "b", 0.9: "c"}

	err := svc.SaveStyleProfile(context.Background(), "user@example.com", StyleProfile{
		Overall:    "short and blunt",
		FirstThird: "early posts rambled",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.GenerateDrafts(context.Background(), GenerateRequest{
		SessionID:    "session-1",
		AccountEmail: "user@example.com",
		PostText:     "post",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := messageText(requestByTemp(t, deps.model, 0.7))
	if !strings.Contains(text, "early posts rambled") || !strings.Contains(text, styleMatchSuffix) {
		t.Fatalf("saved profile not applied to prompt:\n%s", text)
	}
}

func TestSaveStyleProfileRejectsIncomplete(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	if err := svc.SaveStyleProfile(context.Background(), "", StyleProfile{Overall: "x"}); err == nil {
		t.Fatal("expected error for missing email")
	}
	if err := svc.SaveStyleProfile(context.Background(), "user@example.com", StyleProfile{}); err == nil {
		t.Fatal("expected error for missing overall section")
	}
}

func TestGenerateDraftsRequiresSession(t *testing.T) {
	t.Parallel()
	svc, _ := newTestService(t)
	if _, err := svc.GenerateDrafts(context.Background(), GenerateRequest{PostText: "post"}); err == nil {
		t.Fatal("expected error for missing session id")
	}
}
