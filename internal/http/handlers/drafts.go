package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/postpilot/postpilot-backend/internal/drafts"
	"github.com/postpilot/postpilot-backend/internal/http/middleware"
	"github.com/postpilot/postpilot-backend/internal/http/response"
)

type DraftHandler struct {
	svc *drafts.Service
}

func NewDraftHandler(svc *drafts.Service) *DraftHandler {
	return &DraftHandler{svc: svc}
}

type generateDraftsReq struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	PostText  string `json:"post_text"`
}

// POST /api/drafts/generate
func (h *DraftHandler) Generate(c *gin.Context) {
	var req generateDraftsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("session_id required"))
		return
	}
	email := c.GetString(middleware.AccountEmailKey)
	variants, err := h.svc.GenerateDrafts(c.Request.Context(), drafts.GenerateRequest{
		SessionID:    req.SessionID,
		AccountEmail: email,
		Message:      req.Message,
		PostText:     req.PostText,
	})
	if err != nil {
		response.RespondError(c, http.StatusBadGateway, "generate_drafts_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"drafts": variants})
}
