package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/service"
)

// TemplateHandler serves the caller's graphic templates and their assets.
//
// Routes handled:
//   - GET    /api/templates             -> List
//   - POST   /api/templates             -> Create
//   - GET    /api/templates/{id}        -> Get
//   - PUT    /api/templates/{id}        -> Update
//   - DELETE /api/templates/{id}        -> Delete
//   - POST   /api/templates/{id}/assets -> UploadAsset
type TemplateHandler struct {
	templates service.TemplateService
	logger    *slog.Logger
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(templates service.TemplateService, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{
		templates: templates,
		logger:    logger,
	}
}

// RegisterRoutes registers template routes with the provided middleware.
func (h *TemplateHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/templates", requireUser(http.HandlerFunc(h.List)))
	mux.Handle("POST /api/templates", requireUser(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/templates/{id}", requireUser(http.HandlerFunc(h.Get)))
	mux.Handle("PUT /api/templates/{id}", requireUser(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/templates/{id}", requireUser(http.HandlerFunc(h.Delete)))
	mux.Handle("POST /api/templates/{id}/assets", requireUser(http.HandlerFunc(h.UploadAsset)))
}

// List returns the caller's templates.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	templates, err := h.templates.ListTemplates(r.Context(), id.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if templates == nil {
		templates = []domain.Template{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"templates": templates})
}

// Get returns one template, upgraded to the current schema.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	const op = "TemplateHandler.Get"

	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	templateID, err := pathUUID(r, op, "id", "template")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	tmpl, err := h.templates.GetTemplate(r.Context(), id.ID, templateID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, tmpl)
}

// Create stores a new template.
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "TemplateHandler.Create"

	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var in domain.TemplateInput
	if err := decodeJSON(w, r, op, &in); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	tmpl, err := h.templates.CreateTemplate(r.Context(), id.ID, in)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, tmpl)
}

// Update replaces a template's name, kind and data.
func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "TemplateHandler.Update"

	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	templateID, err := pathUUID(r, op, "id", "template")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var in domain.TemplateInput
	if err := decodeJSON(w, r, op, &in); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	tmpl, err := h.templates.UpdateTemplate(r.Context(), id.ID, templateID, in)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, tmpl)
}

// Delete removes a template.
func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "TemplateHandler.Delete"

	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	templateID, err := pathUUID(r, op, "id", "template")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.templates.DeleteTemplate(r.Context(), id.ID, templateID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadAsset accepts one image in the "file" form field.
func (h *TemplateHandler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	const op = "TemplateHandler.UploadAsset"

	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	templateID, err := pathUUID(r, op, "id", "template")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	// Room for the multipart envelope around a maximum-size image.
	r.Body = http.MaxBytesReader(w, r.Body, domain.MaxTemplateAssetSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(w, r, h.logger, domain.Errorf(domain.ETOOLARGE, op, "Image exceeds the upload limit."))
			return
		}
		ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "file", "An image file is required"))
		return
	}
	defer file.Close()

	asset, err := h.templates.UploadAsset(r.Context(), id.ID, templateID,
		header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("template asset uploaded",
		"template_id", templateID,
		"key", asset.Key,
		"size", asset.Size,
	)
	WriteJSON(w, http.StatusCreated, asset)
}
