package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/strip-admin-api/internal/api"
	"github.com/strip-admin-api/internal/config"
	"github.com/strip-admin-api/internal/mocks"
	"github.com/strip-admin-api/internal/models"
	"github.com/strip-admin-api/internal/service"
	"github.com/strip-admin-api/internal/store"
	"github.com/strip-admin-api/internal/validation"
)

const (
	testPassword = "correct horse"
	testToken    = "session-token"
)

type testDeps struct {
	session *mocks.MockSessionService
	strips  *mocks.MockStripService
	public  *mocks.MockPublicReader
}

func setupTestRouter(strips ...models.StripRecord) (*gin.Engine, *testDeps) {
	gin.SetMode(gin.TestMode)

	deps := &testDeps{
		session: mocks.NewMockSessionService(testPassword, testToken),
		strips:  mocks.NewMockStripService(strips...),
		public:  &mocks.MockPublicReader{},
	}

	services := &service.Services{
		Session: deps.session,
		Strips:  deps.strips,
		Public:  deps.public,
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		Admin:  config.AdminConfig{Password: testPassword, SessionTTL: time.Hour},
		Upload: config.UploadConfig{MaxUploadSize: 1024},
	}

	router := api.NewRouter(services, cfg, zerolog.Nop())
	return router, deps
}

func authorized(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func uploadBody(t *testing.T, filename, contentType string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		writer.WriteField(k, v)
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
		h.Set("Content-Type", contentType)
		part, err := writer.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(data)
	}
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestRouter()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)

	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "strip-admin-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"correct password", `{"password":"correct horse"}`, http.StatusOK},
		{"wrong password", `{"password":"nope"}`, http.StatusUnauthorized},
		{"missing password", `{}`, http.StatusBadRequest},
		{"malformed body", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupTestRouter()

			req := httptest.NewRequest("POST", "/v1/session", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var response map[string]string
			json.Unmarshal(w.Body.Bytes(), &response)
			if response["token"] != testToken {
				t.Errorf("Expected token %q, got %q", testToken, response["token"])
			}
			if !strings.Contains(w.Header().Get("Set-Cookie"), api.SessionCookie+"="+testToken) {
				t.Errorf("Expected session cookie, got %q", w.Header().Get("Set-Cookie"))
			}
		})
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	router, deps := setupTestRouter(models.StripRecord{ID: "strip-001"})

	tests := []struct {
		name   string
		method string
		url    string
	}{
		{"list", "GET", "/v1/admin/strips"},
		{"upload", "POST", "/v1/admin/strips"},
		{"delete", "DELETE", "/v1/admin/strips/strip-001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.url, nil)
			req.Header.Set("Authorization", "Bearer "+testToken)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401 before login, got %d", w.Code)
			}
		})
	}

	if len(deps.strips.Deletes) != 0 || len(deps.strips.Uploads) != 0 {
		t.Error("No mutation may reach the service without a session")
	}
}

func TestSessionCookieAndLogout(t *testing.T) {
	router, deps := setupTestRouter(models.StripRecord{ID: "strip-001", PublishDate: "2024-01-01"})
	deps.session.Authenticate(testPassword)

	req := httptest.NewRequest("GET", "/v1/admin/strips", nil)
	req.AddCookie(&http.Cookie{Name: api.SessionCookie, Value: testToken})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 with cookie, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authorized(httptest.NewRequest("DELETE", "/v1/session", nil)))
	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204 on logout, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, authorized(httptest.NewRequest("GET", "/v1/admin/strips", nil)))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 after logout, got %d", w.Code)
	}
}

func TestListAdminStrips(t *testing.T) {
	router, deps := setupTestRouter(
		models.StripRecord{ID: "strip-002", Title: models.StringPtr("Dos"), PublishDate: "2024-02-01", MediaType: models.MediaTypeImage},
		models.StripRecord{ID: "strip-001", PublishDate: "2024-01-01", MediaType: models.MediaTypeVideo},
	)
	deps.session.Authenticate(testPassword)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authorized(httptest.NewRequest("GET", "/v1/admin/strips", nil)))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var idx models.StripIndex
	if err := json.Unmarshal(w.Body.Bytes(), &idx); err != nil {
		t.Fatalf("Invalid response: %v", err)
	}
	if len(idx.Strips) != 2 || idx.Strips[0].ID != "strip-002" {
		t.Errorf("Unexpected strips %+v", idx.Strips)
	}
	if idx.Strips[1].Title != nil {
		t.Errorf("Expected null title, got %q", *idx.Strips[1].Title)
	}
}

func TestListPublicStrips(t *testing.T) {
	router, deps := setupTestRouter()
	deps.public.Index = models.StripIndex{Strips: []models.StripRecord{{ID: "strip-001", PublishDate: "2024-01-01"}}}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/strips", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"strip-001"`)) {
		t.Errorf("Expected strip in body, got %s", w.Body.String())
	}

	deps.public.Err = &store.TransportError{Op: "load index", StatusCode: 404, Err: errors.New("could not load strip index")}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/strips", nil))
	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", w.Code)
	}
}

func TestUploadStrip(t *testing.T) {
	router, deps := setupTestRouter()
	deps.session.Authenticate(testPassword)

	body, contentType := uploadBody(t, "strip.png", "image/png", []byte("\x89PNG\r\n\x1a\n"), map[string]string{
		"title":        "Primera",
		"publish_date": "2024-03-01",
	})
	req := authorized(httptest.NewRequest("POST", "/v1/admin/strips", body))
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", w.Code, w.Body.String())
	}
	if len(deps.strips.Uploads) != 1 {
		t.Fatalf("Expected one upload, got %d", len(deps.strips.Uploads))
	}

	got := deps.strips.Uploads[0]
	if got.Filename != "strip.png" || got.ContentType != "image/png" || got.Title != "Primera" || got.PublishDate != "2024-03-01" {
		t.Errorf("Unexpected upload request %+v", got)
	}
	if string(got.Data) != "\x89PNG\r\n\x1a\n" {
		t.Errorf("File bytes not forwarded")
	}
}

func TestUploadStrip_Rejected(t *testing.T) {
	tests := []struct {
		name           string
		filename       string
		data           []byte
		uploadErr      error
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "missing file",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "file is required",
		},
		{
			name:           "file over limit",
			filename:       "big.png",
			data:           make([]byte, 2048),
			expectedStatus: http.StatusBadRequest,
			expectedError:  "file too large",
		},
		{
			name:           "validation error",
			filename:       "strip.txt",
			data:           []byte("hello"),
			uploadErr:      validation.Errors{{Field: "file", Message: "unsupported file type"}},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "unsupported file type",
		},
		{
			name:           "concurrent edit",
			filename:       "strip.png",
			data:           []byte("\x89PNG\r\n\x1a\n"),
			uploadErr:      fmt.Errorf("upload strip: write index: %w", store.ErrConflict),
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "storage unavailable",
			filename:       "strip.png",
			data:           []byte("\x89PNG\r\n\x1a\n"),
			uploadErr:      &store.TransportError{Op: "put asset", StatusCode: 401, Err: errors.New("Bad credentials")},
			expectedStatus: http.StatusBadGateway,
			expectedError:  "Bad credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, deps := setupTestRouter()
			deps.session.Authenticate(testPassword)
			if tt.uploadErr != nil {
				deps.strips.UploadFunc = func(ctx context.Context, req *models.UploadRequest) (*models.StripRecord, error) {
					return nil, tt.uploadErr
				}
			}

			body, contentType := uploadBody(t, tt.filename, "image/png", tt.data, map[string]string{"publish_date": "2024-03-01"})
			req := authorized(httptest.NewRequest("POST", "/v1/admin/strips", body))
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedError != "" && !bytes.Contains(w.Body.Bytes(), []byte(tt.expectedError)) {
				t.Errorf("Expected error '%s' in response, got: %s", tt.expectedError, w.Body.String())
			}
		})
	}
}

func TestDeleteStrip(t *testing.T) {
	record := models.StripRecord{ID: "strip-001", ImageURL: "/strips/a.png", MediaType: models.MediaTypeImage, PublishDate: "2024-01-01"}

	t.Run("existing", func(t *testing.T) {
		router, deps := setupTestRouter(record)
		deps.session.Authenticate(testPassword)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authorized(httptest.NewRequest("DELETE", "/v1/admin/strips/strip-001", nil)))

		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if len(deps.strips.Deletes) != 1 || deps.strips.Deletes[0].ImageURL != "/strips/a.png" {
			t.Errorf("Expected full record passed to delete, got %+v", deps.strips.Deletes)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		router, deps := setupTestRouter(record)
		deps.session.Authenticate(testPassword)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authorized(httptest.NewRequest("DELETE", "/v1/admin/strips/strip-999", nil)))

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status 404, got %d", w.Code)
		}
		if len(deps.strips.Deletes) != 0 {
			t.Error("Delete must not run for an unknown id")
		}
	})

	t.Run("conflict", func(t *testing.T) {
		router, deps := setupTestRouter(record)
		deps.session.Authenticate(testPassword)
		deps.strips.DeleteErr = store.ErrConflict

		w := httptest.NewRecorder()
		router.ServeHTTP(w, authorized(httptest.NewRequest("DELETE", "/v1/admin/strips/strip-001", nil)))

		if w.Code != http.StatusConflict {
			t.Errorf("Expected status 409, got %d", w.Code)
		}
	})
}

func TestCORSHeaders(t *testing.T) {
	router, _ := setupTestRouter()

	req := httptest.NewRequest("OPTIONS", "/v1/admin/strips", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 for OPTIONS, got %d", w.Code)
	}

	allowOrigin := w.Header().Get("Access-Control-Allow-Origin")
	if allowOrigin != "*" {
		t.Errorf("Expected Access-Control-Allow-Origin '*', got '%s'", allowOrigin)
	}

	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), "DELETE") {
		t.Error("Expected DELETE in Access-Control-Allow-Methods")
	}
}
