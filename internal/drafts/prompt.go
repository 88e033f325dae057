package drafts

import (
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/postpilot/postpilot-backend/internal/platform/openai"
)

const systemPrompt = `You are a social post drafting assistant. The user is composing a short post and wants help improving it.

Rules:
- Respond with the improved post text only. No preamble, no commentary, no quotation marks around the post.
- Keep the post concise and natural. Do not add hashtags or emoji unless the user already uses them.
- Never use em-dashes.
- The user's current draft is wrapped in <current_post> tags. Treat everything inside as the text to improve.`

// variantInstructions steer each of the three parallel generations. Index
// matches the variant index and its sampling temperature. Sent only when a
// style profile exists; without one the three sequences are identical and
// only the temperatures differ.
var variantInstructions = [3]string{
	"Write an improved version of the post that follows the user's writing style closely.",
	"Write an improved version of the post that takes a slightly different angle while staying true to the user's intent.",
	"Write a more creative variation of the post. Take some liberty with phrasing while keeping the core message.",
}

const styleMatchSuffix = " Match the user's writing style."

// promptInput is everything the orchestrator gathers before building the
// per-variant message sequences.
type promptInput struct {
	message      string
	postText     string
	attachments  *Resolved
	pages        []PageContent
	profile      StyleProfile
	profileFound bool
}

// buildMessages assembles the message sequence for variant i. All variants
// share the same context; when a style profile exists they additionally get
// their own style segment and closing instruction.
func buildMessages(in promptInput, i int) []openai.ChatMessage {
	var msgs []openai.ChatMessage

	var contextParts []openai.MessagePart
	contextParts = append(contextParts, openai.MessagePart{
		Type: "input_text",
		Text: fmt.Sprintf("<current_post>%s</current_post>", in.postText),
	})
	if strings.TrimSpace(in.message) != "" {
		contextParts = append(contextParts, openai.MessagePart{Type: "input_text", Text: in.message})
	}
	if in.attachments != nil {
		contextParts = append(contextParts, attachmentParts(in.attachments)...)
	}
	for _, page := range in.pages {
		contextParts = append(contextParts, openai.MessagePart{
			Type: "input_text",
			Text: fmt.Sprintf("<website_content url=%q title=%q>\n%s\n</website_content>", page.URL, page.Title, page.Content),
		})
	}
	msgs = append(msgs, openai.ChatMessage{Role: "user", Parts: contextParts})

	if in.profileFound && strings.TrimSpace(in.profile.Overall) != "" {
		msgs = append(msgs, openai.ChatMessage{Role: "user", Parts: []openai.MessagePart{{
			Type: "input_text",
			Text: "The user's writing style:\n" + in.profile.Segment(i),
		}}})
		msgs = append(msgs, openai.ChatMessage{Role: "user", Parts: []openai.MessagePart{{
			Type: "input_text",
			Text: variantInstructions[i] + styleMatchSuffix,
		}}})
	}
	return msgs
}

// attachmentParts converts resolved attachment partitions into model message
// parts, images first, then files, then links.
func attachmentParts(r *Resolved) []openai.MessagePart {
	var parts []openai.MessagePart
	for _, img := range r.Images {
		parts = append(parts, openai.MessagePart{
			Type:     "input_image",
			ImageURL: dataURL(img.MimeType, img.Image),
		})
	}
	for _, f := range r.Files {
		switch f.Kind {
		case PartText:
			parts = append(parts, openai.MessagePart{Type: "input_text", Text: f.Text})
		default:
			parts = append(parts, openai.MessagePart{
				Type:     "input_file",
				FileData: dataURL(f.MimeType, f.Data),
				Filename: path.Base(strings.TrimSpace(f.MimeType)) + "-attachment",
			})
		}
	}
	if len(r.Links) > 0 {
		var b strings.Builder
		b.WriteString("The user attached these links:\n")
		for _, l := range r.Links {
			b.WriteString("- " + l.Link + "\n")
		}
		parts = append(parts, openai.MessagePart{Type: "input_text", Text: b.String()})
	}
	return parts
}

func dataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
