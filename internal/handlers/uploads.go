package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quickfynd/api/internal/platform/auth"
	"github.com/quickfynd/api/internal/platform/httpx"
	"github.com/quickfynd/api/internal/platform/storage"
)

const (
	maxUploadBodySize   = 8 * 1024
	maxProductImageSize = 10 << 20
)

var allowedImageContentTypes = []string{"image/*"}

// UploadHandlers issues signed upload URLs for product media.
type UploadHandlers struct {
	client *storage.Client
	bucket string
}

// NewUploadHandlers constructs upload handlers over the signed URL client.
func NewUploadHandlers(client *storage.Client, bucket string) *UploadHandlers {
	return &UploadHandlers{client: client, bucket: bucket}
}

// StoreRoutes registers seller-facing upload endpoints.
func (h *UploadHandlers) StoreRoutes(r chi.Router) {
	r.Post("/uploads/product-image", h.createProductImageURL)
}

// AdminRoutes registers upload endpoints for storefront section media.
func (h *UploadHandlers) AdminRoutes(r chi.Router) {
	r.Post("/uploads/section-media", h.createSectionMediaURL)
}

type sectionMediaUploadRequest struct {
	SectionID   string `json:"section_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	ContentMD5  string `json:"content_md5"`
}

type productImageUploadRequest struct {
	ProductID   string `json:"product_id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	ContentMD5  string `json:"content_md5"`
}

type productImageUploadResponse struct {
	UploadURL string            `json:"upload_url"`
	Method    string            `json:"method"`
	Object    string            `json:"object"`
	ExpiresAt string            `json:"expires_at"`
	Headers   map[string]string `json:"headers,omitempty"`
}

func (h *UploadHandlers) createProductImageURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if h.client == nil || strings.TrimSpace(h.bucket) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "upload signing unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxUploadBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req productImageUploadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	object, err := storage.BuildObjectPath(storage.PurposeProductImage, storage.PathParams{
		StoreID:   identity.UID,
		ProductID: req.ProductID,
		FileName:  req.FileName,
	})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
		return
	}

	result, err := h.client.SignedURL(ctx, h.bucket, object, storage.SignedURLOptions{
		Upload: &storage.UploadOptions{
			Method:              http.MethodPut,
			ContentType:         req.ContentType,
			ContentMD5:          req.ContentMD5,
			AllowedContentTypes: allowedImageContentTypes,
			MaxSize:             maxProductImageSize,
		},
	})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
		return
	}

	writeJSONResponse(w, http.StatusOK, productImageUploadResponse{
		UploadURL: result.URL,
		Method:    result.Method,
		Object:    object,
		ExpiresAt: formatTime(result.ExpiresAt),
		Headers:   result.Headers,
	})
}

func (h *UploadHandlers) createSectionMediaURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := auth.IdentityFromContext(ctx); !ok {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}
	if h.client == nil || strings.TrimSpace(h.bucket) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "upload signing unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxUploadBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req sectionMediaUploadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", "request body is not valid JSON", http.StatusBadRequest))
		return
	}

	object, err := storage.BuildObjectPath(storage.PurposeSectionMedia, storage.PathParams{
		SectionID: req.SectionID,
		FileName:  req.FileName,
	})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
		return
	}

	result, err := h.client.SignedURL(ctx, h.bucket, object, storage.SignedURLOptions{
		Upload: &storage.UploadOptions{
			Method:              http.MethodPut,
			ContentType:         req.ContentType,
			ContentMD5:          req.ContentMD5,
			AllowedContentTypes: allowedImageContentTypes,
			MaxSize:             maxProductImageSize,
		},
	})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_argument", err.Error(), http.StatusBadRequest))
		return
	}

	writeJSONResponse(w, http.StatusOK, productImageUploadResponse{
		UploadURL: result.URL,
		Method:    result.Method,
		Object:    object,
		ExpiresAt: formatTime(result.ExpiresAt),
		Headers:   result.Headers,
	})
}
