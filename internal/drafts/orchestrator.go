package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/postpilot/postpilot-backend/internal/platform/openai"
)

// SaveStyleProfile caches the account's analyzed writing style. Later draft
// requests for the account read it to steer the three variants.
func (s *Service) SaveStyleProfile(ctx context.Context, accountEmail string, profile StyleProfile) error {
	if strings.TrimSpace(accountEmail) == "" {
		return fmt.Errorf("account email required")
	}
	if strings.TrimSpace(profile.Overall) == "" {
		return fmt.Errorf("style profile requires an overall section")
	}
	if err := s.kv.SetJSON(ctx, styleProfileKey(accountEmail), profile); err != nil {
		return fmt.Errorf("store style profile: %w", err)
	}
	s.log.Info("style profile saved", "email", accountEmail)
	return nil
}

// GenerateRequest is one draft-generation call for a session.
type GenerateRequest struct {
	SessionID    string `json:"session_id"`
	AccountEmail string `json:"account_email"`
	Message      string `json:"message"`
	PostText     string `json:"post_text"`
}

// GenerateDrafts produces three improved variants of the current post,
// generated in parallel at increasing sampling temperatures. Variant order is
// stable: index 0 is the closest rewrite, index 2 the most creative one.
//
// The session's queued attachment parts and scraped page contents are
// consumed by this call: they are read, folded into the prompt, and cleared
// so the next request starts fresh. Any variant failing fails the whole call.
func (s *Service) GenerateDrafts(ctx context.Context, req GenerateRequest) ([]DraftVariant, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, fmt.Errorf("session id required")
	}

	var (
		profile      StyleProfile
		profileFound bool
		partRaws     []string
		pageRaws     []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := s.kv.GetJSON(gctx, styleProfileKey(req.AccountEmail), &profile)
		if err != nil {
			// A missing or unreadable style profile degrades the prompt, it
			// does not block drafting.
			s.log.Warn("style profile read failed", "email", req.AccountEmail, "error", err)
			return nil
		}
		profileFound = found
		return nil
	})
	g.Go(func() error {
		vals, err := s.kv.ListRange(gctx, unseenAttachmentsKey(req.SessionID))
		if err != nil {
			return fmt.Errorf("read attachment queue: %w", err)
		}
		partRaws = vals
		return nil
	})
	g.Go(func() error {
		vals, err := s.kv.ListRange(gctx, websiteContentsKey(req.SessionID))
		if err != nil {
			return fmt.Errorf("read website queue: %w", err)
		}
		pageRaws = vals
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.kv.Del(ctx, unseenAttachmentsKey(req.SessionID), websiteContentsKey(req.SessionID)); err != nil {
		return nil, fmt.Errorf("clear session queues: %w", err)
	}

	in := promptInput{
		message:      req.Message,
		postText:     req.PostText,
		attachments:  decodeParts(s, partRaws),
		pages:        decodePages(s, pageRaws),
		profile:      profile,
		profileFound: profileFound,
	}

	temps := s.cfg.Drafts.Temperatures
	variants := make([]DraftVariant, len(temps))
	vg, vctx := errgroup.WithContext(ctx)
	for i := range temps {
		i := i
		vg.Go(func() error {
			temp := temps[i]
			raw, err := s.model.GenerateChat(vctx, openai.ChatRequest{
				System:      systemPrompt,
				Messages:    buildMessages(in, i),
				Temperature: &temp,
			})
			if err != nil {
				return fmt.Errorf("variant %d: %w", i, err)
			}
			improved := SanitizeModelOutput(raw, s.cfg.Drafts.WrapperTags)
			variants[i] = DraftVariant{
				ID:           uuid.NewString(),
				ImprovedText: improved,
				Diffs:        Diff(req.PostText, improved),
			}
			return nil
		})
	}
	if err := vg.Wait(); err != nil {
		return nil, err
	}

	s.log.Info("drafts generated", "session_id", req.SessionID, "variants", len(variants),
		"attachments", len(partRaws), "pages", len(pageRaws))
	return variants, nil
}

func decodeParts(s *Service, raws []string) *Resolved {
	out := &Resolved{}
	for _, raw := range raws {
		var part ContentPart
		if err := json.Unmarshal([]byte(raw), &part); err != nil {
			s.log.Warn("dropping undecodable queued attachment part", "error", err)
			continue
		}
		switch part.Kind {
		case PartImage:
			out.Images = append(out.Images, part)
		case PartLink:
			out.Links = append(out.Links, part)
		default:
			out.Files = append(out.Files, part)
		}
	}
	return out
}

func decodePages(s *Service, raws []string) []PageContent {
	var pages []PageContent
	for _, raw := range raws {
		var page PageContent
		if err := json.Unmarshal([]byte(raw), &page); err != nil {
			s.log.Warn("dropping undecodable queued page content", "error", err)
			continue
		}
		pages = append(pages, page)
	}
	return pages
}
