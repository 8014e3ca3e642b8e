package service_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/fieldops/backoffice-api/internal/domain"
	"github.com/fieldops/backoffice-api/internal/service"
	"github.com/fieldops/backoffice-api/internal/storage"
	"github.com/fieldops/backoffice-api/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaService(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	media := service.NewMediaService(store, 16, testutil.NewTestLogger())
	ctx := context.Background()

	tech := domain.Actor{ID: uuid.New(), Role: domain.RoleTechnician}
	sales := domain.Actor{ID: uuid.New(), Role: domain.RoleSales}

	dto, err := media.Upload(ctx, tech, "voice.m4a", "audio/mp4; codecs=mp4a", strings.NewReader("short clip"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dto.URL, service.MediaURLPrefix+"reports/"))
	assert.Equal(t, int64(10), dto.Size)

	obj, err := media.Open(ctx, sales, dto.StoragePath)
	require.NoError(t, err)
	body, _ := io.ReadAll(obj.Body)
	obj.Body.Close()
	assert.Equal(t, "short clip", string(body))

	t.Run("sales cannot upload", func(t *testing.T) {
		_, err := media.Upload(ctx, sales, "a.jpg", "image/jpeg", strings.NewReader("x"))
		assert.ErrorIs(t, err, service.ErrForbidden)
	})

	t.Run("documents are rejected", func(t *testing.T) {
		_, err := media.Upload(ctx, tech, "a.pdf", "application/pdf", strings.NewReader("x"))
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("oversized upload is removed", func(t *testing.T) {
		_, err := media.Upload(ctx, tech, "big.png", "image/png", bytes.NewReader(make([]byte, 64)))
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("missing and traversal paths", func(t *testing.T) {
		_, err := media.Open(ctx, tech, "reports/2026/01/missing.jpg")
		assert.ErrorIs(t, err, service.ErrNotFound)
		_, err = media.Open(ctx, tech, "../../etc/passwd")
		assert.ErrorIs(t, err, service.ErrValidation)
	})

	t.Run("unassigned users cannot open", func(t *testing.T) {
		_, err := media.Open(ctx, domain.Actor{ID: uuid.New(), Role: domain.RoleNotAssign}, dto.StoragePath)
		assert.ErrorIs(t, err, service.ErrForbidden)
	})
}
