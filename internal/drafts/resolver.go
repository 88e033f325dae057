package drafts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// transcriptPending is substituted for a video attachment whose transcription
// job has not finished within the polling window.
const transcriptPending = "Video transcript is still being processed and is not available yet."

type resolvedPart struct {
	part ContentPart
	ok   bool
}

// ResolveAttachments turns attachment references into model-ready content
// parts, fanning out one goroutine per reference. The first hard failure
// cancels the remaining work and is returned as an *AttachmentError.
//
// References that cannot contribute anything useful are dropped without
// failing the batch: non-url references with no object key, and url
// references whose knowledge document cannot be found.
func (s *Service) ResolveAttachments(ctx context.Context, refs []AttachmentRef) (*Resolved, error) {
	results := make([]resolvedPart, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		if ref.Kind != AttachmentURL && strings.TrimSpace(ref.FileKey) == "" {
			continue
		}
		i, ref := i, ref
		g.Go(func() error {
			part, ok, err := s.resolveOne(gctx, ref)
			if err != nil {
				return &AttachmentError{Key: ref.FileKey, Err: err}
			}
			results[i] = resolvedPart{part: part, ok: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Resolved{}
	for _, r := range results {
		if !r.ok {
			continue
		}
		switch r.part.Kind {
		case PartImage:
			out.Images = append(out.Images, r.part)
		case PartLink:
			out.Links = append(out.Links, r.part)
		default:
			out.Files = append(out.Files, r.part)
		}
	}
	return out, nil
}

func (s *Service) resolveOne(ctx context.Context, ref AttachmentRef) (ContentPart, bool, error) {
	switch ref.Kind {
	case AttachmentURL:
		return s.resolveURL(ctx, ref)
	case AttachmentImage:
		return s.resolveImage(ctx, ref.FileKey, "")
	case AttachmentDocx:
		return s.resolveDocx(ctx, ref.FileKey)
	case AttachmentVideo:
		return s.resolveVideo(ctx, ref.FileKey)
	default:
		return s.resolveGeneric(ctx, ref.FileKey)
	}
}

// resolveGeneric handles references uploaded without an explicit kind by
// classifying the stored object's content type first.
func (s *Service) resolveGeneric(ctx context.Context, fileKey string) (ContentPart, bool, error) {
	attrs, err := s.store.GetObjectAttrs(ctx, fileKey)
	if err != nil {
		return ContentPart{}, false, err
	}
	switch classifyContentType(attrs.ContentType) {
	case AttachmentImage:
		return s.resolveImage(ctx, fileKey, attrs.ContentType)
	case AttachmentDocx:
		return s.resolveDocx(ctx, fileKey)
	case AttachmentVideo:
		return s.resolveVideo(ctx, fileKey)
	}
	s.log.Warn("attachment content type not recognized, passing through raw",
		"key", fileKey, "content_type", attrs.ContentType)
	data, err := s.store.FetchObject(ctx, fileKey)
	if err != nil {
		return ContentPart{}, false, err
	}
	return ContentPart{Kind: PartFile, Data: data, MimeType: attrs.ContentType}, true, nil
}

func (s *Service) resolveURL(ctx context.Context, ref AttachmentRef) (ContentPart, bool, error) {
	id, err := uuid.Parse(ref.ID)
	if err != nil {
		s.log.Warn("url attachment has invalid document id, skipping", "id", ref.ID)
		return ContentPart{}, false, nil
	}
	doc, err := s.docs.FindByID(ctx, nil, id)
	if err != nil {
		s.log.Warn("url attachment document lookup failed, skipping", "id", ref.ID, "error", err)
		return ContentPart{}, false, nil
	}
	if strings.TrimSpace(doc.SourceURL) == "" {
		s.log.Warn("url attachment document has no source url, skipping", "id", ref.ID)
		return ContentPart{}, false, nil
	}
	return ContentPart{Kind: PartLink, Link: doc.SourceURL}, true, nil
}

func (s *Service) resolveImage(ctx context.Context, fileKey, mimeType string) (ContentPart, bool, error) {
	data, err := s.store.FetchObject(ctx, fileKey)
	if err != nil {
		return ContentPart{}, false, err
	}
	if mimeType == "" {
		attrs, err := s.store.GetObjectAttrs(ctx, fileKey)
		if err == nil {
			mimeType = attrs.ContentType
		}
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	return ContentPart{Kind: PartImage, Image: data, MimeType: mimeType}, true, nil
}

func (s *Service) resolveDocx(ctx context.Context, fileKey string) (ContentPart, bool, error) {
	data, err := s.store.FetchObject(ctx, fileKey)
	if err != nil {
		return ContentPart{}, false, err
	}
	text, err := s.extractText(fileKey, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", data)
	if err != nil {
		return ContentPart{}, false, fmt.Errorf("extract docx text: %w", err)
	}
	wrapped := fmt.Sprintf("<attached_docx name=%q>\n%s\n</attached_docx>", fileKey, text)
	return ContentPart{Kind: PartText, Text: wrapped}, true, nil
}

func (s *Service) resolveVideo(ctx context.Context, fileKey string) (ContentPart, bool, error) {
	transcript, found, err := s.pollTranscript(ctx, fileKey)
	if err != nil {
		return ContentPart{}, false, err
	}
	if !found {
		return ContentPart{Kind: PartText, Text: transcriptPending}, true, nil
	}
	wrapped := fmt.Sprintf("<video_transcript name=%q>\n%s\n</video_transcript>", fileKey, transcript)
	return ContentPart{Kind: PartText, Text: wrapped}, true, nil
}

func classifyContentType(contentType string) AttachmentKind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return AttachmentImage
	case strings.HasPrefix(ct, "video/"):
		return AttachmentVideo
	case ct == "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		ct == "application/msword":
		return AttachmentDocx
	default:
		return ""
	}
}

// ResolveAndQueue resolves a batch of references and appends every resulting
// part to the session's unseen-attachments queue, where the next draft
// request will pick them up.
func (s *Service) ResolveAndQueue(ctx context.Context, sessionID string, refs []AttachmentRef) (*Resolved, error) {
	resolved, err := s.ResolveAttachments(ctx, refs)
	if err != nil {
		return nil, err
	}
	var vals []string
	for _, group := range [][]ContentPart{resolved.Images, resolved.Files, resolved.Links} {
		for _, part := range group {
			raw, err := json.Marshal(part)
			if err != nil {
				return nil, fmt.Errorf("encode content part: %w", err)
			}
			vals = append(vals, string(raw))
		}
	}
	if len(vals) > 0 {
		if err := s.kv.ListPush(ctx, unseenAttachmentsKey(sessionID), vals...); err != nil {
			return nil, fmt.Errorf("queue attachments: %w", err)
		}
	}
	return resolved, nil
}
