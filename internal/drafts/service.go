package drafts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/postpilot/postpilot-backend/internal/config"
	"github.com/postpilot/postpilot-backend/internal/platform/gcp"
	"github.com/postpilot/postpilot-backend/internal/platform/logger"
	"github.com/postpilot/postpilot-backend/internal/platform/openai"
	"github.com/postpilot/postpilot-backend/internal/types"
)

// ObjectStore is the attachment/artifact object-store surface the pipeline
// reads from. Implemented by platform/gcp.
type ObjectStore interface {
	GetObjectAttrs(ctx context.Context, key string) (*gcp.ObjectAttrs, error)
	FetchObject(ctx context.Context, key string) ([]byte, error)
}

// TextExtractor turns document bytes into plain text. Wired to extract.Text.
type TextExtractor func(originalName string, mimeType string, data []byte) (string, error)

// ContextStore is the session key-value store holding the cached style
// profile and the per-session context queues. Implemented by platform/kv.
type ContextStore interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Del(ctx context.Context, keys ...string) error
	ListRange(ctx context.Context, key string) ([]string, error)
	ListPush(ctx context.Context, key string, vals ...string) error
}

// KnowledgeDocs looks up saved reference documents for url-type attachments.
type KnowledgeDocs interface {
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KnowledgeDocument, error)
}

// ChatModel is a single chat-capable generation endpoint.
type ChatModel interface {
	GenerateChat(ctx context.Context, req openai.ChatRequest) (string, error)
}

// Service is the draft-generation pipeline: attachment resolution, transcript
// polling, three-variant generation, and diffing.
type Service struct {
	log         *logger.Logger
	cfg         config.Config
	store       ObjectStore
	extractText TextExtractor
	kv          ContextStore
	docs        KnowledgeDocs
	model       ChatModel
	clock       Clock
}

func NewService(
	baseLog *logger.Logger,
	cfg config.Config,
	store ObjectStore,
	extractText TextExtractor,
	kvStore ContextStore,
	docs KnowledgeDocs,
	model ChatModel,
) *Service {
	return &Service{
		log:         baseLog.With("service", "DraftService"),
		cfg:         cfg,
		store:       store,
		extractText: extractText,
		kv:          kvStore,
		docs:        docs,
		model:       model,
		clock:       realClock{},
	}
}
