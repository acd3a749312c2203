package api

import (
	"bytes"
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

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/recipe-content/pkg/recipecontent"
	"github.com/tendant/recipe-content/pkg/recipecontent/auth"
	"github.com/tendant/recipe-content/pkg/recipecontent/storage/memory"
)

type testServer struct {
	*httptest.Server
	token string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	svc, err := recipecontent.New(
		recipecontent.WithAuthorization(auth.NewContextProvider()),
		recipecontent.WithBlobStore(memory.New()),
	)
	require.NoError(t, err)

	verifier, err := auth.NewHMACVerifier("api-test-secret")
	require.NoError(t, err)
	token, err := verifier.Issue("user-1", time.Hour)
	require.NoError(t, err)

	root := chi.NewRouter()
	root.Mount("/api/v1", Routes(RouterConfig{Service: svc, Verifier: verifier}))

	srv := httptest.NewServer(root)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, token: token}
}

func (s *testServer) do(t *testing.T, method, path, contentType string, body []byte, authed bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func multipartImage(t *testing.T, field, mimeType string, data []byte) (string, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="pie.img"`, field))
	h.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return mw.FormDataContentType(), buf.Bytes()
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error
}

func TestImagesAPI_Lifecycle(t *testing.T) {
	srv := newTestServer(t)
	path := "/api/v1/recipes/recipe-123/image"

	ct, body := multipartImage(t, "file", "image/png", []byte("png bytes"))
	resp := srv.do(t, http.MethodPut, path, ct, body, true)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var meta recipecontent.ObjectMeta
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&meta))
	assert.Equal(t, "recipeImage_recipe-123", meta.Key)
	assert.Equal(t, "image/png", meta.ContentType)
	assert.Equal(t, int64(len("png bytes")), meta.Size)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = srv.do(t, http.MethodGet, path, "", nil, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ref ImageURLResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ref))
	assert.Equal(t, "memory://recipeImage_recipe-123", ref.URL)

	resp = srv.do(t, http.MethodDelete, path, "", nil, true)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = srv.do(t, http.MethodDelete, path, "", nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Image not found", decodeError(t, resp))

	resp = srv.do(t, http.MethodGet, path, "", nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestImagesAPI_Preconditions(t *testing.T) {
	srv := newTestServer(t)
	path := "/api/v1/recipes/recipe-123/image"

	pngType, pngBody := multipartImage(t, "file", "image/png", []byte("png"))
	gifType, gifBody := multipartImage(t, "file", "image/gif", []byte("gif"))
	otherType, otherBody := multipartImage(t, "attachment", "image/png", []byte("png"))
	bigType, bigBody := multipartImage(t, "file", "image/jpeg", bytes.Repeat([]byte{0xff}, int(recipecontent.MaxImageSize)+1))
	huge := bytes.Repeat([]byte{0xff}, 12<<20)
	hugeType, hugeBody := multipartImage(t, "file", "image/jpeg", huge)
	hugeGIFType, hugeGIFBody := multipartImage(t, "file", "image/gif", huge)

	tests := []struct {
		name        string
		method      string
		contentType string
		body        []byte
		authed      bool
		wantStatus  int
		wantError   string
	}{
		{"upload anonymous", http.MethodPut, pngType, pngBody, false, http.StatusUnauthorized, "User must be authenticated to upload images"},
		{"upload anonymous gif", http.MethodPut, gifType, gifBody, false, http.StatusUnauthorized, "User must be authenticated to upload images"},
		{"upload gif", http.MethodPut, gifType, gifBody, true, http.StatusUnsupportedMediaType, "Only JPEG, PNG, and WebP images are allowed"},
		{"upload too large", http.MethodPut, bigType, bigBody, true, http.StatusRequestEntityTooLarge, "File size must be less than 10MB"},
		{"upload over body limit", http.MethodPut, hugeType, hugeBody, true, http.StatusRequestEntityTooLarge, "File size must be less than 10MB"},
		{"upload over body limit anonymous", http.MethodPut, hugeType, hugeBody, false, http.StatusUnauthorized, "User must be authenticated to upload images"},
		{"upload oversized gif reports type", http.MethodPut, hugeGIFType, hugeGIFBody, true, http.StatusUnsupportedMediaType, "Only JPEG, PNG, and WebP images are allowed"},
		{"upload missing file", http.MethodPut, otherType, otherBody, true, http.StatusBadRequest, "File and recipe UUID are required"},
		{"upload missing file anonymous", http.MethodPut, otherType, otherBody, false, http.StatusBadRequest, "File and recipe UUID are required"},
		{"upload not multipart", http.MethodPut, "application/json", []byte("{}"), true, http.StatusBadRequest, "File and recipe UUID are required"},
		{"url anonymous", http.MethodGet, "", nil, false, http.StatusUnauthorized, "User must be authenticated to access images"},
		{"delete anonymous", http.MethodDelete, "", nil, false, http.StatusUnauthorized, "User must be authenticated to delete images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.do(t, tt.method, path, tt.contentType, tt.body, tt.authed)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantError, decodeError(t, resp))
		})
	}
}

func TestImagesAPI_InvalidToken(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/recipes/recipe-123/image", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer forged")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "User must be authenticated to access images", decodeError(t, resp))
}

func TestCredentialsAPI(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
		want CheckCredentialsResponse
	}{
		{
			name: "valid",
			body: `{"email":"  Cook@Example.COM ","password":"Password123"}`,
			want: CheckCredentialsResponse{EmailValid: true, PasswordValid: true, Email: "cook@example.com"},
		},
		{
			name: "weak password",
			body: `{"email":"cook@example.com","password":"password"}`,
			want: CheckCredentialsResponse{EmailValid: true, PasswordValid: false, Email: "cook@example.com"},
		},
		{
			name: "script email",
			body: `{"email":"<script>@example.com","password":"Password123"}`,
			want: CheckCredentialsResponse{EmailValid: false, PasswordValid: true, Email: "<script>@example.com"},
		},
		{
			name: "empty",
			body: `{}`,
			want: CheckCredentialsResponse{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.do(t, http.MethodPost, "/api/v1/credentials/check", "application/json", []byte(tt.body), false)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var got CheckCredentialsResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		resp := srv.do(t, http.MethodPost, "/api/v1/credentials/check", "application/json", []byte("{"), false)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid request body", decodeError(t, resp))
	})
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/recipes/recipe-123/image", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Less(t, resp.StatusCode, 300)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPut)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{recipecontent.ErrFileAndRecipeUUIDRequired, http.StatusBadRequest},
		{recipecontent.ErrRecipeUUIDRequired, http.StatusBadRequest},
		{recipecontent.ErrUploadUnauthenticated, http.StatusUnauthorized},
		{recipecontent.ErrAccessUnauthenticated, http.StatusUnauthorized},
		{recipecontent.ErrDeleteUnauthenticated, http.StatusUnauthorized},
		{recipecontent.ErrImageTypeNotAllowed, http.StatusUnsupportedMediaType},
		{recipecontent.ErrImageTooLarge, http.StatusRequestEntityTooLarge},
		{recipecontent.NotFound("memory", "url", "k"), http.StatusNotFound},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "Internal server error"))
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}
