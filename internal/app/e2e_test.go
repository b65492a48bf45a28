package app

import (
	"bytes"
	"encoding/json"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"modlog/internal/config"
	"modlog/internal/database"
)

type E2ETestSuite struct {
	router *gin.Engine
	cfg    *config.Config
}

type TestResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorDetail    `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(filepath.Join(t.TempDir(), "e2e.db"), zap.NewNop())
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, Migrate(db))

	upload := config.DefaultUpload()
	upload.Root = t.TempDir()
	cfg := &config.Config{
		AppEnv:    "test",
		JWTSecret: "test_secret_key_32_characters_min",
		JWTTTL:    24 * time.Hour,
		LogLevel:  "info",
		Upload:    upload,
	}
	return &E2ETestSuite{router: New(cfg, db, zap.NewNop()).Router, cfg: cfg}
}

func (s *E2ETestSuite) do(t *testing.T, req *http.Request, token string) (*httptest.ResponseRecorder, TestResponse) {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp TestResponse
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (s *E2ETestSuite) makeRequest(t *testing.T, method, path string, body any, token string) (*httptest.ResponseRecorder, TestResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req, token)
}

func (s *E2ETestSuite) upload(t *testing.T, path, filename string, data []byte, token string) (*httptest.ResponseRecorder, TestResponse) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("description", "front three quarter"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(t, req, token)
}

func (s *E2ETestSuite) signup(t *testing.T, username string) (id, token string) {
	t.Helper()
	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/auth/signup", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "SecurePass123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		User  struct{ ID string } `json:"user"`
		Token string              `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data.User.ID, data.Token
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func jpegFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(640, 480, color.NRGBA{R: 200, A: 255}), imaging.JPEG))
	return buf.Bytes()
}

func TestE2E_BuildLogLifecycle(t *testing.T) {
	s := setupTestSuite(t)

	_, aliceToken := s.signup(t, "alice")
	_, bobToken := s.signup(t, "bobby")

	t.Run("Login", func(t *testing.T) {
		w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
			"username": "alice", "password": "SecurePass123",
		}, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)

		w, resp = s.makeRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]any{
			"username": "alice", "password": "wrong-password",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, resp.Success)
	})

	w, resp := s.makeRequest(t, http.MethodPost, "/api/v1/projects", map[string]any{
		"name":       "Civic EG",
		"year":       1994,
		"make":       "Honda",
		"horsepower": 160,
		"weight":     1000,
		"drivetrain": "FWD",
		"mods":       []string{"B18C swap"},
	}, aliceToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		ID            string  `json:"id"`
		WeightToPower float64 `json:"w2p"`
		IsOwner       bool    `json:"is_owner"`
	}](t, resp.Data)
	assert.Equal(t, 6.25, created.WeightToPower)
	assert.True(t, created.IsOwner)
	projectPath := "/api/v1/projects/" + created.ID

	t.Run("Follow", func(t *testing.T) {
		w, _ := s.makeRequest(t, http.MethodPost, projectPath+"/follow", nil, bobToken)
		assert.Equal(t, http.StatusOK, w.Code)

		w, resp := s.makeRequest(t, http.MethodGet, projectPath, nil, bobToken)
		require.Equal(t, http.StatusOK, w.Code)
		got := decode[struct {
			Following bool `json:"following"`
			Followers int  `json:"followers"`
		}](t, resp.Data)
		assert.True(t, got.Following)
		assert.Equal(t, 1, got.Followers)
	})

	var picture struct {
		ID           string `json:"id"`
		URL          string `json:"url"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	t.Run("UploadPicture", func(t *testing.T) {
		w, resp := s.upload(t, projectPath+"/pictures", "civic.jpg", jpegFixture(t), bobToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "FORBIDDEN", resp.Error.Code)

		w, resp = s.upload(t, projectPath+"/pictures", "civic.jpg", jpegFixture(t), aliceToken)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		picture = decode[struct {
			ID           string `json:"id"`
			URL          string `json:"url"`
			ThumbnailURL string `json:"thumbnail_url"`
		}](t, resp.Data)

		w, _ = s.do(t, httptest.NewRequest(http.MethodGet, picture.URL, nil), "")
		assert.Equal(t, http.StatusOK, w.Code)
		w, _ = s.do(t, httptest.NewRequest(http.MethodGet, picture.ThumbnailURL, nil), "")
		require.Equal(t, http.StatusOK, w.Code)
		thumb, err := imaging.Decode(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		assert.LessOrEqual(t, thumb.Bounds().Dx(), s.cfg.Upload.ThumbnailSize)
	})

	t.Run("UpdatesAndComments", func(t *testing.T) {
		w, _ := s.makeRequest(t, http.MethodPost, projectPath+"/updates", map[string]any{
			"title": "Engine in", "content": "Fired up first try.",
		}, aliceToken)
		assert.Equal(t, http.StatusCreated, w.Code)

		w, resp := s.makeRequest(t, http.MethodPost, projectPath+"/comments", map[string]any{
			"content": "Sounds mean",
		}, bobToken)
		require.Equal(t, http.StatusCreated, w.Code)
		root := decode[struct {
			ID string `json:"id"`
		}](t, resp.Data)

		w, _ = s.makeRequest(t, http.MethodPost, projectPath+"/comments", map[string]any{
			"content": "Thanks", "parent_id": root.ID,
		}, aliceToken)
		require.Equal(t, http.StatusCreated, w.Code)

		w, resp = s.makeRequest(t, http.MethodGet, projectPath+"/comments", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		threads := decode[[]struct {
			Replies []json.RawMessage `json:"replies"`
		}](t, resp.Data)
		require.Len(t, threads, 1)
		assert.Len(t, threads[0].Replies, 1)

		w, _ = s.makeRequest(t, http.MethodPost, projectPath+"/comments", map[string]any{"content": "anon"}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("PrivateProject", func(t *testing.T) {
		w, _ := s.makeRequest(t, http.MethodPut, projectPath, map[string]any{
			"name": "Civic EG", "privacy": "private",
		}, aliceToken)
		require.Equal(t, http.StatusOK, w.Code)

		w, _ = s.makeRequest(t, http.MethodGet, projectPath, nil, bobToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
		w, _ = s.makeRequest(t, http.MethodGet, projectPath, nil, aliceToken)
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = s.do(t, httptest.NewRequest(http.MethodGet, picture.URL, nil), bobToken)
		assert.Equal(t, http.StatusForbidden, w.Code)
		w, _ = s.do(t, httptest.NewRequest(http.MethodGet, picture.ThumbnailURL, nil), aliceToken)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("AccountDeletionCascades", func(t *testing.T) {
		w, _ := s.makeRequest(t, http.MethodDelete, "/api/v1/users/me", nil, aliceToken)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w, _ = s.makeRequest(t, http.MethodGet, projectPath, nil, bobToken)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = s.do(t, httptest.NewRequest(http.MethodGet, picture.URL, nil), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		w, _ = s.do(t, httptest.NewRequest(http.MethodGet, picture.ThumbnailURL, nil), "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = s.makeRequest(t, http.MethodGet, "/api/v1/users/me/following", nil, bobToken)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestE2E_HealthAndAuth(t *testing.T) {
	s := setupTestSuite(t)

	w, _ := s.makeRequest(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp := s.makeRequest(t, http.MethodGet, "/api/v1/users/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_HEADER_MISSING", resp.Error.Code)

	w, resp = s.makeRequest(t, http.MethodPost, "/api/v1/auth/signup", map[string]any{
		"username": "ab", "email": "nope", "password": "x",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}
