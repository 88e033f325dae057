package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/postpilot/postpilot-backend/internal/pkg/errors"
	"github.com/postpilot/postpilot-backend/internal/platform/logger"
	"github.com/postpilot/postpilot-backend/internal/types"
)

type KnowledgeDocumentRepo interface {
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KnowledgeDocument, error)
	Create(ctx context.Context, tx *gorm.DB, docs []*types.KnowledgeDocument) ([]*types.KnowledgeDocument, error)
	ListByAccount(ctx context.Context, tx *gorm.DB, accountEmail string, limit int) ([]*types.KnowledgeDocument, error)
}

type knowledgeDocumentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKnowledgeDocumentRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeDocumentRepo {
	repoLog := baseLog.With("repo", "KnowledgeDocumentRepo")
	return &knowledgeDocumentRepo{db: db, log: repoLog}
}

func (r *knowledgeDocumentRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.KnowledgeDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var doc types.KnowledgeDocument
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("knowledge document %s: %w", id, pkgerrors.ErrNotFound)
		}
		return nil, err
	}
	return &doc, nil
}

func (r *knowledgeDocumentRepo) Create(ctx context.Context, tx *gorm.DB, docs []*types.KnowledgeDocument) ([]*types.KnowledgeDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(docs) == 0 {
		return []*types.KnowledgeDocument{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *knowledgeDocumentRepo) ListByAccount(ctx context.Context, tx *gorm.DB, accountEmail string, limit int) ([]*types.KnowledgeDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if limit <= 0 {
		limit = 50
	}

	var results []*types.KnowledgeDocument
	if err := transaction.WithContext(ctx).
		Where("account_email = ?", accountEmail).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
