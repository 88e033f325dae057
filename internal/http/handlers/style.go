package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/postpilot/postpilot-backend/internal/drafts"
	"github.com/postpilot/postpilot-backend/internal/http/middleware"
	"github.com/postpilot/postpilot-backend/internal/http/response"
)

type StyleHandler struct {
	svc *drafts.Service
}

func NewStyleHandler(svc *drafts.Service) *StyleHandler {
	return &StyleHandler{svc: svc}
}

// PUT /api/style-profile
func (h *StyleHandler) Save(c *gin.Context) {
	var profile drafts.StyleProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	email := c.GetString(middleware.AccountEmailKey)
	if err := h.svc.SaveStyleProfile(c.Request.Context(), email, profile); err != nil {
		response.RespondError(c, http.StatusBadRequest, "save_style_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"saved": true})
}
