package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"strings"

	pkgerrors "github.com/postpilot/postpilot-backend/internal/pkg/errors"
)

// transcriptNotRecognized is returned when the transcript artifact exists but
// carries no usable text field.
const transcriptNotRecognized = "Transcript content found but format not recognized"

// transcriptArtifactKey maps a video's object key to the key its transcription
// job writes, e.g. "uploads/a/b.mp4" -> "transcriptions/uploads/a/b.json".
func transcriptArtifactKey(fileKey string) string {
	ext := path.Ext(fileKey)
	base := strings.TrimSuffix(fileKey, ext)
	return "transcriptions/" + base + ".json"
}

type transcriptArtifact struct {
	Text string `json:"text"`
}

// pollTranscript fetches the transcript artifact for a video, retrying on a
// fixed delay while the transcription job is still running. It returns the
// transcript text and true on success, or "" and false once all attempts are
// spent. Any fetch or decode failure consumes an attempt.
func (s *Service) pollTranscript(ctx context.Context, fileKey string) (string, bool, error) {
	key := transcriptArtifactKey(fileKey)
	attempts := s.cfg.Transcripts.MaxAttempts
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := s.clock.Sleep(ctx, s.cfg.Transcripts.Delay()); err != nil {
				return "", false, err
			}
		}
		raw, err := s.store.FetchObject(ctx, key)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrNotFound) {
				s.log.Debug("transcript not ready", "key", key, "attempt", i+1)
			} else {
				s.log.Warn("transcript fetch failed", "key", key, "attempt", i+1, "error", err)
			}
			continue
		}
		var artifact transcriptArtifact
		if err := json.Unmarshal(raw, &artifact); err != nil {
			s.log.Warn("transcript artifact not valid json", "key", key, "error", err)
			continue
		}
		if strings.TrimSpace(artifact.Text) == "" {
			return transcriptNotRecognized, true, nil
		}
		return artifact.Text, true, nil
	}
	s.log.Warn("transcript polling exhausted", "key", key, "attempts", attempts)
	return "", false, nil
}
