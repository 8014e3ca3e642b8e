package service

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/policy"
	"github.com/fieldops/backoffice-api/internal/storage"
	"go.uber.org/zap"
)

// MediaURLPrefix is where uploaded evidence is served back from
const MediaURLPrefix = "/api/media/"

// MediaService stores photos and voice messages referenced by job reports
type MediaService struct {
	store    storage.Storage
	maxBytes int64
	logger   *zap.Logger
}

func NewMediaService(store storage.Storage, maxBytes int64, logger *zap.Logger) *MediaService {
	return &MediaService{store: store, maxBytes: maxBytes, logger: logger}
}

// MaxBytes is the largest accepted upload
func (s *MediaService) MaxBytes() int64 {
	return s.maxBytes
}

func allowedMediaType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	return strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "audio/")
}

// Upload stores one image or audio file and returns the URL to put in a report
func (s *MediaService) Upload(ctx context.Context, actor domain.Actor, filename, contentType string, data io.Reader) (*domain.MediaUploadDTO, error) {
	if !policy.HasRole(actor, policy.UploadMedia) {
		return nil, forbidden("You are not allowed to upload report media")
	}
	if !allowedMediaType(contentType) {
		return nil, validation("Only image and audio files can be attached to a report")
	}

	reader := data
	if s.maxBytes > 0 {
		reader = io.LimitReader(data, s.maxBytes+1)
	}
	key, size, err := s.store.Upload(ctx, filename, contentType, reader)
	if err != nil {
		return nil, err
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		_ = s.store.Delete(ctx, key)
		return nil, validation("File exceeds the maximum upload size")
	}

	s.logger.Info("report media uploaded",
		zap.String("storage_path", key),
		zap.Int64("size", size),
		zap.String("by", actor.ID.String()))

	return &domain.MediaUploadDTO{
		URL:         MediaURLPrefix + key,
		StoragePath: key,
		ContentType: contentType,
		Size:        size,
	}, nil
}

// Open returns a stored file for streaming back to an authenticated caller
func (s *MediaService) Open(ctx context.Context, actor domain.Actor, key string) (*storage.Object, error) {
	if !policy.HasRole(actor, policy.ViewJobs) {
		return nil, forbidden("You are not allowed to view report media")
	}
	obj, err := s.store.Download(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, notFound("Media")
	case errors.Is(err, storage.ErrInvalidPath):
		return nil, validation("Invalid media path")
	case err != nil:
		return nil, err
	}
	return obj, nil
}
