package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/postpilot/postpilot-backend/internal/http/middleware"
	"github.com/postpilot/postpilot-backend/internal/http/response"
	"github.com/postpilot/postpilot-backend/internal/repos"
	"github.com/postpilot/postpilot-backend/internal/types"
)

type DocumentHandler struct {
	docs repos.KnowledgeDocumentRepo
}

func NewDocumentHandler(docs repos.KnowledgeDocumentRepo) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

type createDocumentReq struct {
	Title      string `json:"title"`
	SourceURL  string `json:"source_url"`
	StorageKey string `json:"storage_key"`
}

// POST /api/documents
func (h *DocumentHandler) Create(c *gin.Context) {
	var req createDocumentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.SourceURL) == "" && strings.TrimSpace(req.StorageKey) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request",
			fmt.Errorf("source_url or storage_key required"))
		return
	}
	doc := &types.KnowledgeDocument{
		AccountEmail: c.GetString(middleware.AccountEmailKey),
		Title:        req.Title,
		SourceURL:    req.SourceURL,
		StorageKey:   req.StorageKey,
	}
	created, err := h.docs.Create(c.Request.Context(), nil, []*types.KnowledgeDocument{doc})
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "create_document_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"document": created[0]})
}

// GET /api/documents?limit=50
func (h *DocumentHandler) List(c *gin.Context) {
	limit := 50
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	docs, err := h.docs.ListByAccount(c.Request.Context(), nil, c.GetString(middleware.AccountEmailKey), limit)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_documents_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"documents": docs})
}
