package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/postpilot/postpilot-backend/internal/drafts"
	"github.com/postpilot/postpilot-backend/internal/http/response"
	"github.com/postpilot/postpilot-backend/internal/platform/gcp"
)

type AttachmentHandler struct {
	svc    *drafts.Service
	bucket gcp.BucketService
}

func NewAttachmentHandler(svc *drafts.Service, bucket gcp.BucketService) *AttachmentHandler {
	return &AttachmentHandler{svc: svc, bucket: bucket}
}

type resolveAttachmentsReq struct {
	SessionID   string                 `json:"session_id"`
	Attachments []drafts.AttachmentRef `json:"attachments"`
}

// POST /api/attachments/resolve
func (h *AttachmentHandler) Resolve(c *gin.Context) {
	var req resolveAttachmentsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("session_id required"))
		return
	}
	resolved, err := h.svc.ResolveAndQueue(c.Request.Context(), req.SessionID, req.Attachments)
	if err != nil {
		var attErr *drafts.AttachmentError
		if errors.As(err, &attErr) {
			response.RespondError(c, http.StatusUnprocessableEntity, "attachment_failed", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "resolve_failed", err)
		return
	}
	response.RespondOK(c, gin.H{
		"images": len(resolved.Images),
		"files":  len(resolved.Files),
		"links":  len(resolved.Links),
	})
}

// POST /api/attachments/upload (multipart: file)
func (h *AttachmentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	name := strings.TrimSpace(filepath.Base(fileHeader.Filename))
	if name == "" || name == "." {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("file name required"))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	defer f.Close()

	key := fmt.Sprintf("uploads/%s/%s", uuid.NewString(), name)
	if err := h.bucket.UploadObject(c.Request.Context(), key, f); err != nil {
		response.RespondError(c, http.StatusInternalServerError, "upload_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"file_key": key})
}
