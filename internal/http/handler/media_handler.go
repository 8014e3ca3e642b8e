package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/fieldops/backoffice-api/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// multipartOverhead leaves room for form boundaries around the file part
const multipartOverhead = 1 << 20

// MediaHandler accepts report photos and voice messages and serves them back
type MediaHandler struct {
	mediaService *service.MediaService
	logger       *zap.Logger
}

func NewMediaHandler(mediaService *service.MediaService, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{mediaService: mediaService, logger: logger}
}

// Upload godoc
// @Summary Upload report media
// @Description Accepts one image or audio file in the "file" form field. The returned URL goes into a job report.
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image or audio file"
// @Success 201 {object} domain.MediaUploadDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 413 {object} domain.APIError
// @Security BearerAuth
// @Router /media [post]
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}

	if maxBytes := h.mediaService.MaxBytes(); maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	}
	reader, err := r.MultipartReader()
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Expected a multipart/form-data body")
		return
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.partError(w, err)
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		contentType := part.Header.Get("Content-Type")
		result, err := h.mediaService.Upload(r.Context(), actor, part.FileName(), contentType, part)
		_ = part.Close()
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				h.partError(w, err)
				return
			}
			respondServiceError(w, h.logger, err, "upload media")
			return
		}
		w.Header().Set("Location", result.URL)
		respondJSON(w, http.StatusCreated, result)
		return
	}

	respondWithError(w, http.StatusBadRequest, "Missing file field")
}

func (h *MediaHandler) partError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		respondWithError(w, http.StatusRequestEntityTooLarge, "File exceeds the maximum upload size")
		return
	}
	respondWithError(w, http.StatusBadRequest, "Malformed multipart body")
}

// Download godoc
// @Summary Download report media
// @Tags Media
// @Produce octet-stream
// @Param path path string true "Storage path returned by upload"
// @Success 200 {file} binary
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /media/{path} [get]
func (h *MediaHandler) Download(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	key := strings.TrimPrefix(chi.URLParam(r, "*"), "/")

	obj, err := h.mediaService.Open(r.Context(), actor, key)
	if err != nil {
		respondServiceError(w, h.logger, err, "download media")
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Warn("media stream interrupted", zap.String("path", key), zap.Error(err))
	}
}
