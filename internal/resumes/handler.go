package resumes

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resumind/internal/blobview"
	"resumind/internal/extract"
	"resumind/internal/shared/server/middleware"
	"resumind/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the resumes service.
type Handler struct {
	Svc   *Service
	Views *blobview.Registry
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, views *blobview.Registry) *Handler {
	return &Handler{Svc: svc, Views: views}
}

// RegisterRoutes attaches resume and view routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/resumes", h.analyze)
	rg.GET("/resumes", h.list)
	rg.GET("/resumes/:id", h.load)
	rg.DELETE("/resumes/:id", h.remove)
	rg.GET("/views/:viewId/blobs/:handle", h.blob)
	rg.DELETE("/views/:viewId", h.closeView)
}

func (h *Handler) service(c *gin.Context) *Service {
	return h.Svc.ForOwner(middleware.UserIDFromContext(c))
}

type feedbackItem struct {
	ID           string   `json:"id"`
	CompanyName  string   `json:"companyName"`
	JobTitle     string   `json:"jobTitle"`
	Status       Status   `json:"status"`
	OverallScore *float64 `json:"overallScore,omitempty"`
	ATSScore     *float64 `json:"atsScore,omitempty"`
}

func toFeedbackItem(item Item) feedbackItem {
	out := feedbackItem{
		ID:          item.Record.ID,
		CompanyName: item.Record.CompanyName,
		JobTitle:    item.Record.JobTitle,
		Status:      item.Status,
	}
	if item.Feedback != nil {
		overall, ats := item.Feedback.OverallScore, item.Feedback.ATS.Score
		out.OverallScore = &overall
		out.ATSScore = &ats
	}
	return out
}

func (h *Handler) analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, extract.MaxPDFBytes+1<<20)
	header, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", []map[string]string{
			{"field": "file", "issue": "required"},
		})
		return
	}
	if header.Size > extract.MaxPDFBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "The file must be 20 MB or smaller.", nil)
		return
	}
	f, err := header.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read upload", nil)
		return
	}
	data, err := io.ReadAll(io.LimitReader(f, extract.MaxPDFBytes+1))
	_ = f.Close()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "could not read upload", nil)
		return
	}
	if len(data) > extract.MaxPDFBytes {
		respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "The file must be 20 MB or smaller.", nil)
		return
	}
	if !extract.IsPDF(data) {
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_file", "Only PDF files are supported.", nil)
		return
	}

	job := JobContext{
		CompanyName:    strings.TrimSpace(c.PostForm("companyName")),
		JobTitle:       strings.TrimSpace(c.PostForm("jobTitle")),
		JobDescription: strings.TrimSpace(c.PostForm("jobDescription")),
	}
	file := File{Name: header.Filename, Data: data}
	svc := h.service(c)

	if strings.Contains(c.GetHeader("Accept"), "text/event-stream") {
		h.analyzeStream(c, svc, job, file)
		return
	}

	out := svc.Analyze(c.Request.Context(), job, file, nil)
	if !out.OK() {
		respond.Error(c, failureStatus(out.Err), "analysis_failed", out.Message, nil)
		return
	}
	respond.Created(c, "/api/v1/resumes/"+out.ID, gin.H{
		"id":       out.ID,
		"redirect": out.Redirect,
	})
}

func (h *Handler) analyzeStream(c *gin.Context, svc *Service, job JobContext, file File) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	progress := func(label string) {
		c.SSEvent("progress", gin.H{"label": label})
		c.Writer.Flush()
	}
	out := svc.Analyze(c.Request.Context(), job, file, progress)
	if !out.OK() {
		c.SSEvent("failed", gin.H{"message": out.Message})
	} else {
		c.SSEvent("done", gin.H{"id": out.ID, "redirect": out.Redirect})
	}
	c.Writer.Flush()
}

func failureStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrConversion):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInference), errors.Is(err, ErrMalformedResponse), errors.Is(err, ErrExtraction):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.service(c).List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Failed to load resumes.", nil)
		return
	}
	out := make([]feedbackItem, 0, len(items))
	for _, item := range items {
		out = append(out, toFeedbackItem(item))
	}
	respond.OK(c, gin.H{"items": out})
}

func (h *Handler) load(c *gin.Context) {
	owner := middleware.UserIDFromContext(c)
	id := c.Param("id")

	// Passing the current viewId re-triggers a load inside the same session.
	sess, opened := h.session(owner, c.Query("viewId"))
	view, err := h.Svc.ForOwner(owner).Load(c.Request.Context(), sess, id)
	if err != nil && !errors.Is(err, ErrNoFeedback) {
		if opened {
			sess.Close()
		}
		status, code := loadStatus(err)
		respond.Error(c, status, code, UserMessage(err), gin.H{"id": id})
		return
	}

	body := gin.H{
		"id":             view.Record.ID,
		"viewId":         sess.ID,
		"companyName":    view.Record.CompanyName,
		"jobTitle":       view.Record.JobTitle,
		"jobDescription": view.Record.JobDescription,
		"resumeUrl":      blobURL(sess.ID, view.Resume.ID),
		"imageUrl":       blobURL(sess.ID, view.Image.ID),
		"status":         StatusComplete,
		"feedback":       view.Feedback,
	}
	if errors.Is(err, ErrNoFeedback) {
		body["status"] = StatusIncomplete
		body["message"] = UserMessage(err)
	}
	respond.OK(c, body)
}

func (h *Handler) session(owner, viewID string) (*blobview.Session, bool) {
	if viewID != "" {
		if sess, err := h.Views.Session(owner, viewID); err == nil {
			return sess, false
		}
	}
	return h.Views.Open(owner), true
}

func loadStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrInvalidRecord):
		return http.StatusUnprocessableEntity, "invalid_data"
	case errors.Is(err, ErrResumeUnavailable):
		return http.StatusNotFound, "resume_unavailable"
	case errors.Is(err, ErrPreviewUnavailable):
		return http.StatusNotFound, "preview_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func blobURL(viewID, handle string) string {
	return "/api/v1/views/" + viewID + "/blobs/" + handle
}

func (h *Handler) blob(c *gin.Context) {
	data, contentType, err := h.Views.Get(middleware.UserIDFromContext(c), c.Param("viewId"), c.Param("handle"))
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "This view has expired. Reload the page.", nil)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) closeView(c *gin.Context) {
	if err := h.Views.Close(middleware.UserIDFromContext(c), c.Param("viewId")); err != nil && !errors.Is(err, blobview.ErrViewNotFound) {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to close view", nil)
		return
	}
	respond.NoContent(c)
}

func (h *Handler) remove(c *gin.Context) {
	svc := h.service(c)
	id := c.Param("id")

	item, err := svc.Item(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", UserMessage(err), nil)
			return
		}
		// An undecodable record can still be deleted by key.
		if !errors.Is(err, ErrInvalidRecord) {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Delete failed. Try again.", nil)
			return
		}
		item = Item{Key: RecordKey(id), Record: Record{ID: id}}
	}

	if err := svc.Remove(c.Request.Context(), item); err != nil {
		if errors.Is(err, ErrDeleteInProgress) {
			respond.Error(c, http.StatusConflict, "delete_in_progress", UserMessage(err), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Delete failed. Try again.", nil)
		return
	}
	respond.NoContent(c)
}
