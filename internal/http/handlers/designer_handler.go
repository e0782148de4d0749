package handlers

import (
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/uniform-portal/internal/http/handlers/common"
	"github.com/ignatzorin/uniform-portal/internal/http/response"
	"github.com/ignatzorin/uniform-portal/internal/models"
	"github.com/ignatzorin/uniform-portal/internal/pkg/apperror"
	"github.com/ignatzorin/uniform-portal/internal/service/workspace"
)

// DesignerHandler ответы дизайнера на жалобы.
type DesignerHandler struct {
	workspaces *workspace.Registry
}

func NewDesignerHandler(workspaces *workspace.Registry) *DesignerHandler {
	return &DesignerHandler{workspaces: workspaces}
}

// ListFeedback GET /designer/feedback
func (h *DesignerHandler) ListFeedback(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctrl := h.workspaces.Evidence(userID)
	ctrl.LoadFeedback(c.Request.Context(), false)
	response.Success(c, ctrl.State())
}

// OpenEvidence POST /designer/reports/:id/evidence
func (h *DesignerHandler) OpenEvidence(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	reportID, err := common.ParseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	ctrl := h.workspaces.Evidence(userID)
	ctrl.EnsureLoaded(c.Request.Context())

	snap, err := ctrl.OpenEvidenceDialog(reportID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, snap)
}

// UpdateEvidence PATCH /designer/evidence
func (h *DesignerHandler) UpdateEvidence(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var patch models.EvidencePatch
	if err := common.BindJSON(c, &patch); err != nil {
		response.Error(c, err)
		return
	}

	snap, err := h.workspaces.Evidence(userID).UpdateDraft(patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, snap)
}

// UploadImages POST /designer/evidence/images (multipart, поле files)
// Файлы загружаются по одному, отказ одного файла не прерывает остальные.
func (h *DesignerHandler) UploadImages(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	defer h.workspaces.Hold(userID)()

	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, apperror.Validation("images", "ожидается multipart/form-data"))
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		response.Error(c, apperror.Validation("images", "выберите хотя бы одно изображение"))
		return
	}

	files, closeAll, err := openFiles(headers)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeAll()

	result, err := h.workspaces.Evidence(userID).UploadImages(c.Request.Context(), files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UploadVideo POST /designer/evidence/video (multipart, поле file)
func (h *DesignerHandler) UploadVideo(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	defer h.workspaces.Hold(userID)()

	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, apperror.Validation("video", "выберите видео"))
		return
	}

	files, closeAll, err := openFiles([]*multipart.FileHeader{fh})
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeAll()

	videoURL, err := h.workspaces.Evidence(userID).UploadVideo(c.Request.Context(), files[0])
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"video_url": videoURL})
}

// SubmitEvidence POST /designer/evidence/submit
func (h *DesignerHandler) SubmitEvidence(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	defer h.workspaces.Hold(userID)()

	result, err := h.workspaces.Evidence(userID).SubmitEvidence(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CloseEvidence DELETE /designer/evidence
func (h *DesignerHandler) CloseEvidence(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ctrl := h.workspaces.Evidence(userID)
	ctrl.CloseEvidenceDialog()
	response.Success(c, ctrl.State())
}
