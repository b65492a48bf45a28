package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"modlog/internal/database"
	"modlog/internal/domain"
	"modlog/internal/domain/project"
)

func TestProjectAccess(t *testing.T) {
	db, err := database.Connect(filepath.Join(t.TempDir(), "mw.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db, &project.Project{}, &project.Follow{}))

	repo := project.NewRepository(db)
	private := &project.Project{OwnerID: "owner", Name: "Secret build", Privacy: domain.PrivacyPrivate}
	require.NoError(t, repo.Create(context.Background(), private))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-Test-User-ID"); id != "" {
			c.Set("user_id", id)
		}
		c.Next()
	})
	router.GET("/projects/:id", ProjectAccess(project.NewGuard(repo)), func(c *gin.Context) {
		access, ok := project.AccessFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"owner": access.Owner})
	})

	tests := []struct {
		name     string
		user     string
		id       string
		wantCode int
	}{
		{"owner", "owner", private.ID, http.StatusOK},
		{"stranger", "stranger", private.ID, http.StatusForbidden},
		{"anonymous", "", private.ID, http.StatusForbidden},
		{"missing", "owner", "ffffffffffffffffffffffffffffffff", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/projects/"+tt.id, nil)
			req.Header.Set("X-Test-User-ID", tt.user)
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://modlog.example"}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Origin", "https://modlog.example")
	router.ServeHTTP(w, req)
	assert.Equal(t, "https://modlog.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("Origin", "https://evil.example")
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	router := gin.New()
	router.Use(RequestLogger(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/panic", func(c *gin.Context) { panic("engine seized") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set("X-Request-ID", "req-1")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")

	require.Equal(t, 1, logs.FilterMessage("request").Len())
	panics := logs.FilterMessage("panic").All()
	require.Len(t, panics, 1)
	assert.Equal(t, zapcore.ErrorLevel, panics[0].Level)
	assert.Equal(t, "req-1", logs.FilterMessage("request").All()[0].ContextMap()["request_id"])
}
