package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "modlog.db")
	t.Setenv("APP_ENV", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"png", "jpg", "jpeg", "gif"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, 350, cfg.Upload.ThumbnailSize)
	assert.Equal(t, 75, cfg.Upload.Quality)
	assert.Equal(t, ThumbnailStrict, cfg.Upload.ThumbnailPolicy)
	assert.Equal(t, "/static", cfg.Upload.StaticURLBase)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "modlog.db")
	t.Setenv("ALLOWED_EXTENSIONS", " PNG, jpg ,")
	t.Setenv("THUMBNAIL_POLICY", "best_effort")
	t.Setenv("STATIC_URL_BASE", "/media/")
	t.Setenv("IMAGE_QUALITY", "90")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"png", "jpg"}, cfg.Upload.AllowedExtensions)
	assert.Equal(t, ThumbnailBestEffort, cfg.Upload.ThumbnailPolicy)
	assert.Equal(t, "/media", cfg.Upload.StaticURLBase)
	assert.Equal(t, 90, cfg.Upload.Quality)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing database", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL"},
		{"bad quality", map[string]string{"IMAGE_QUALITY": "150"}, "IMAGE_QUALITY"},
		{"bad int", map[string]string{"THUMBNAIL_SIZE": "big"}, "THUMBNAIL_SIZE"},
		{"bad policy", map[string]string{"THUMBNAIL_POLICY": "sometimes"}, "THUMBNAIL_POLICY"},
		{"bad ttl", map[string]string{"JWT_TTL": "soon"}, "JWT_TTL"},
		{"default secret in prod", map[string]string{"APP_ENV": "production"}, "JWT_SECRET"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "modlog.db")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
