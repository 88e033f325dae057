package drafts

import (
	"fmt"
	"strings"
)

type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentDocx  AttachmentKind = "docx"
	AttachmentVideo AttachmentKind = "video"
	AttachmentFile  AttachmentKind = "file"
	AttachmentURL   AttachmentKind = "url"
)

// AttachmentRef points at media a user attached to a draft session. It is
// consumed exactly once by the resolver and replaced by a ContentPart.
type AttachmentRef struct {
	ID      string         `json:"id"`
	FileKey string         `json:"file_key,omitempty"`
	Kind    AttachmentKind `json:"kind"`
}

type PartKind string

const (
	PartImage PartKind = "image"
	PartFile  PartKind = "file"
	PartText  PartKind = "text"
	PartLink  PartKind = "link"
)

// ContentPart is the normalized, model-consumable form of an attachment.
// Exactly one payload is set depending on Kind.
type ContentPart struct {
	Kind     PartKind `json:"kind"`
	Image    []byte   `json:"image,omitempty"`
	Data     []byte   `json:"data,omitempty"`
	MimeType string   `json:"mime_type,omitempty"`
	Text     string   `json:"text,omitempty"`
	Link     string   `json:"link,omitempty"`
}

// Resolved partitions resolver output the way the prompt builder consumes it.
// Order within each partition follows the input order of the references.
type Resolved struct {
	Images []ContentPart `json:"images"`
	Files  []ContentPart `json:"files"`
	Links  []ContentPart `json:"links"`
}

// StyleProfile is the cached output of the style-analysis job: one overall
// description of the account's writing style plus three chronological slices.
// Computed elsewhere; the draft pipeline only reads it.
type StyleProfile struct {
	Overall     string `json:"overall"`
	FirstThird  string `json:"first_third"`
	SecondThird string `json:"second_third"`
	ThirdThird  string `json:"third_third"`
}

// Segment returns the style slice for variant index i (0..2), falling back to
// the overall description when the slice is missing.
func (p StyleProfile) Segment(i int) string {
	var seg string
	switch i {
	case 0:
		seg = p.FirstThird
	case 1:
		seg = p.SecondThird
	case 2:
		seg = p.ThirdThird
	}
	if strings.TrimSpace(seg) == "" {
		seg = p.Overall
	}
	return strings.TrimSpace(seg)
}

// PageContent is extracted web-page text queued by the link scraper for the
// session, drained by the orchestrator on the next draft request.
type PageContent struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type DraftVariant struct {
	ID           string   `json:"id"`
	ImprovedText string   `json:"improvedText"`
	Diffs        []DiffOp `json:"diffs"`
}

// AttachmentError is a hard resolution failure carrying the offending object
// key so the caller can report which attachment broke.
type AttachmentError struct {
	Key string
	Err error
}

func (e *AttachmentError) Error() string {
	return fmt.Sprintf("failed to process attachment %s: %v", e.Key, e.Err)
}

func (e *AttachmentError) Unwrap() error { return e.Err }

func styleProfileKey(accountEmail string) string {
	return "draft-style:" + accountEmail
}

func unseenAttachmentsKey(sessionID string) string {
	return "unseen-attachments:" + sessionID
}

func websiteContentsKey(sessionID string) string {
	return "website-contents:" + sessionID
}
