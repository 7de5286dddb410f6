package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quickfynd/api/internal/platform/httpx"
	"github.com/quickfynd/api/internal/services"
)

const maxSectionBodySize = 64 * 1024

// ContentHandlers manages merchant-curated storefront sections.
type ContentHandlers struct {
	svc services.ContentService
}

// NewContentHandlers constructs content handlers backed by the provided service.
func NewContentHandlers(svc services.ContentService) *ContentHandlers {
	return &ContentHandlers{svc: svc}
}

// PublicRoutes registers the storefront section endpoints.
func (h *ContentHandlers) PublicRoutes(r chi.Router) {
	r.Get("/sections", h.listVisibleSections)
}

// AdminRoutes registers the section management endpoints.
func (h *ContentHandlers) AdminRoutes(r chi.Router) {
	r.Get("/sections", h.listAllSections)
	r.Post("/sections", h.createSection)
	r.Put("/sections/{sectionID}", h.updateSection)
	r.Delete("/sections/{sectionID}", h.deleteSection)
}

func (h *ContentHandlers) listVisibleSections(w http.ResponseWriter, r *http.Request) {
	h.listSections(w, r, true)
}

func (h *ContentHandlers) listAllSections(w http.ResponseWriter, r *http.Request) {
	h.listSections(w, r, false)
}

func (h *ContentHandlers) listSections(w http.ResponseWriter, r *http.Request, visibleOnly bool) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	sections, err := h.svc.ListSections(ctx, visibleOnly)
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}

	items := make([]sectionPayload, 0, len(sections))
	for _, section := range sections {
		items = append(items, buildSectionPayload(section))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": items})
}

type sectionRequest struct {
	Section    string   `json:"section"`
	Title      string   `json:"title"`
	Subtitle   string   `json:"subtitle"`
	Category   string   `json:"category"`
	Tag        string   `json:"tag"`
	ProductIDs []string `json:"product_ids"`
	GridSize   int      `json:"grid_size"`
	Layout     string   `json:"layout"`
	CTAText    string   `json:"cta_text"`
	CTALink    string   `json:"cta_link"`
	Visible    *bool    `json:"visible"`
	SortOrder  int      `json:"sort_order"`
}

func (req sectionRequest) command(sectionID string) services.SectionCommand {
	return services.SectionCommand{
		SectionID:  sectionID,
		Section:    req.Section,
		Title:      req.Title,
		Subtitle:   req.Subtitle,
		Category:   req.Category,
		Tag:        req.Tag,
		ProductIDs: req.ProductIDs,
		GridSize:   req.GridSize,
		Layout:     req.Layout,
		CTAText:    req.CTAText,
		CTALink:    req.CTALink,
		Visible:    req.Visible,
		SortOrder:  req.SortOrder,
	}
}

func (h *ContentHandlers) createSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	req, ok := decodeSectionRequest(ctx, w, r)
	if !ok {
		return
	}

	section, err := h.svc.CreateSection(ctx, req.command(""))
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, buildSectionPayload(section))
}

func (h *ContentHandlers) updateSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	sectionID := strings.TrimSpace(chi.URLParam(r, "sectionID"))
	req, ok := decodeSectionRequest(ctx, w, r)
	if !ok {
		return
	}

	section, err := h.svc.UpdateSection(ctx, req.command(sectionID))
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildSectionPayload(section))
}

func (h *ContentHandlers) deleteSection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.svc == nil {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	sectionID := strings.TrimSpace(chi.URLParam(r, "sectionID"))
	if err := h.svc.DeleteSection(ctx, sectionID); err != nil {
		writeContentError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeSectionRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) (sectionRequest, bool) {
	body, err := readLimitedBody(r, maxSectionBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return sectionRequest{}, false
	}

	var req sectionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", "request body is not valid JSON", http.StatusBadRequest))
		return sectionRequest{}, false
	}
	return req, true
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body too large", http.StatusRequestEntityTooLarge))
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", "request body is required", http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", "failed to read request body", http.StatusBadRequest))
	}
}

func writeContentError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrContentInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrContentSectionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "section not found", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal", "failed to serve content request", http.StatusInternalServerError))
	}
}
