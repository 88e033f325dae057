package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/postpilot/postpilot-backend/internal/config"
	pkgerrors "github.com/postpilot/postpilot-backend/internal/pkg/errors"
	"github.com/postpilot/postpilot-backend/internal/platform/gcp"
	"github.com/postpilot/postpilot-backend/internal/platform/logger"
	"github.com/postpilot/postpilot-backend/internal/platform/openai"
	"github.com/postpilot/postpilot-backend/internal/types"
)

// fakeObjectStore serves objects from a map; missing keys report not-found.
type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	fetches map[string]int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects: map[string][]byte{},
		types:   map[string]string{},
		fetches: map[string]int{},
	}
}

func (f *fakeObjectStore) put(key string, contentType string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
}

func (f *fakeObjectStore) fetchCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[key]
}

func (f *fakeObjectStore) GetObjectAttrs(ctx context.Context, key string) (*gcp.ObjectAttrs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q: %w", key, pkgerrors.ErrNotFound)
	}
	return &gcp.ObjectAttrs{Size: int64(len(data)), ContentType: f.types[key]}, nil
}

func (f *fakeObjectStore) FetchObject(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches[key]++
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q: %w", key, pkgerrors.ErrNotFound)
	}
	return data, nil
}

// fakeContextStore is an in-memory stand-in for the redis-backed store.
type fakeContextStore struct {
	mu      sync.Mutex
	json    map[string]string
	lists   map[string][]string
	deleted []string

	getErr  error
	listErr error
}

func newFakeContextStore() *fakeContextStore {
	return &fakeContextStore{json: map[string]string{}, lists: map[string][]string{}}
}

func (f *fakeContextStore) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return false, f.getErr
	}
	raw, ok := f.json[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal([]byte(raw), out)
}

func (f *fakeContextStore) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.json[key] = string(raw)
	return nil
}

func (f *fakeContextStore) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.json, k)
		delete(f.lists, k)
		f.deleted = append(f.deleted, k)
	}
	return nil
}

func (f *fakeContextStore) ListRange(ctx context.Context, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.lists[key]...), nil
}

func (f *fakeContextStore) ListPush(ctx context.Context, key string, vals ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[key] = append(f.lists[key], vals...)
	return nil
}

// fakeClock records sleep calls and returns immediately.
type fakeClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, d)
	return ctx.Err()
}

func (f *fakeClock) sleepCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sleeps)
}

func (f *fakeClock) slept() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total time.Duration
	for _, d := range f.sleeps {
		total += d
	}
	return total
}

// fakeChatModel replays canned outputs keyed by request temperature.
type fakeChatModel struct {
	mu       sync.Mutex
	byTemp   map[float64]string
	err      error
	failTemp float64
	requests []openai.ChatRequest
}

func (f *fakeChatModel) GenerateChat(ctx context.Context, req openai.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if req.Temperature == nil {
		return "", fmt.Errorf("missing temperature")
	}
	if f.err != nil && *req.Temperature == f.failTemp {
		return "", f.err
	}
	out, ok := f.byTemp[*req.Temperature]
	if !ok {
		return "", fmt.Errorf("no canned output for temperature %v", *req.Temperature)
	}
	return out, nil
}

type fakeKnowledgeDocs struct {
	docs map[uuid.UUID]*types.KnowledgeDocument
}

func (f *fakeKnowledgeDocs) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KnowledgeDocument, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, fmt.Errorf("knowledge document %s: %w", id, pkgerrors.ErrNotFound)
	}
	return doc, nil
}

type testDeps struct {
	store *fakeObjectStore
	kv    *fakeContextStore
	clock *fakeClock
	model *fakeChatModel
	docs  *fakeKnowledgeDocs
}

func newTestService(t testingT) (*Service, *testDeps) {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	deps := &testDeps{
		store: newFakeObjectStore(),
		kv:    newFakeContextStore(),
		clock: &fakeClock{},
		model: &fakeChatModel{byTemp: map[float64]string{}},
		docs:  &fakeKnowledgeDocs{docs: map[uuid.UUID]*types.KnowledgeDocument{}},
	}
	svc := NewService(log, config.Default(), deps.store, passthroughExtract, deps.kv, deps.docs, deps.model)
	svc.clock = deps.clock
	return svc, deps
}

// testingT is the subset of *testing.T the helpers need.
type testingT interface {
	Fatalf(format string, args ...any)
}

func passthroughExtract(originalName string, mimeType string, data []byte) (string, error) {
	return string(data), nil
}
