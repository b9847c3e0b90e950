package handlers

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexfield/filings-backend/internal/config"
	"github.com/lexfield/filings-backend/internal/services"
)

func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func newCopyrightTestRouter(h *CopyrightHandler, middlewares ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/api/copyright", middlewares...)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.POST("/:id/primary-file", h.UploadPrimaryFile)
	group.POST("/:id/supporting-documents", h.UploadSupportingDocuments)
	group.PATCH("/:id/step", h.UpdateStep)
	return r
}

func TestCopyrightCreateWithoutPrincipal(t *testing.T) {
	h := NewCopyrightHandler(nil, nil, 10)
	r := newCopyrightTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/copyright", strings.NewReader(`{"title":"X"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCopyrightCreateRejectsMalformedBody(t *testing.T) {
	h := NewCopyrightHandler(nil, nil, 10)
	r := newCopyrightTestRouter(h, asUser(uuid.NewString()))

	req := httptest.NewRequest(http.MethodPost, "/api/copyright", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCopyrightGetRejectsBadID(t *testing.T) {
	h := NewCopyrightHandler(nil, nil, 10)
	r := newCopyrightTestRouter(h, asUser(uuid.NewString()))

	req := httptest.NewRequest(http.MethodGet, "/api/copyright/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCopyrightGetRejectsGarbagePrincipal(t *testing.T) {
	h := NewCopyrightHandler(nil, nil, 10)
	r := newCopyrightTestRouter(h, asUser("not-a-uuid"))

	req := httptest.NewRequest(http.MethodGet, "/api/copyright/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCopyrightUploadPrimaryRequiresFile(t *testing.T) {
	h := NewCopyrightHandler(nil, nil, 10)
	r := newCopyrightTestRouter(h, asUser(uuid.NewString()))

	req := httptest.NewRequest(http.MethodPost, "/api/copyright/"+uuid.NewString()+"/primary-file", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "primary")
}

func TestCopyrightUploadDocumentsRequiresFiles(t *testing.T) {
	h := NewCopyrightHandler(nil, nil, 10)
	r := newCopyrightTestRouter(h, asUser(uuid.NewString()))

	req := httptest.NewRequest(http.MethodPost, "/api/copyright/"+uuid.NewString()+"/supporting-documents", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UPLOAD_REJECTED")
}

func newUploadTestHandler(t *testing.T) (*CopyrightHandler, string) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Upload.Root = t.TempDir()
	cfg.Upload.MaxFileSize = 1 << 20
	cfg.Upload.MaxFiles = 10

	storage, err := services.NewStorageService(cfg)
	require.NoError(t, err)
	return NewCopyrightHandler(nil, storage, 10), cfg.Upload.Root
}

func addFilePart(t *testing.T, w *multipart.Writer, field, filename, contentType string, content []byte) {
	t.Helper()
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
}

func filesUnder(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	require.NoError(t, err)
	return files
}

// A batch where a later file is disallowed must be rejected as a whole,
// with the files already written for the request removed again.
func TestCopyrightUploadDocumentsCleansUpOnRejectedFile(t *testing.T) {
	h, root := newUploadTestHandler(t)
	r := newCopyrightTestRouter(h, asUser(uuid.NewString()))

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	addFilePart(t, w, "documents", "brief.pdf", "application/pdf", []byte("%PDF-1.4 brief"))
	addFilePart(t, w, "documents", "tool.exe", "application/x-msdownload", []byte{0x4D, 0x5A})
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/copyright/"+uuid.NewString()+"/supporting-documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "UPLOAD_REJECTED")
	assert.Empty(t, filesUnder(t, root), "rejected request left files on disk")
}

func TestCopyrightUploadDocumentsCleansUpOnTooManyFiles(t *testing.T) {
	h, root := newUploadTestHandler(t)
	h.maxFiles = 2
	r := newCopyrightTestRouter(h, asUser(uuid.NewString()))

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i := 0; i < 3; i++ {
		addFilePart(t, w, "documents", fmt.Sprintf("exhibit-%d.pdf", i), "application/pdf", []byte("%PDF-1.4"))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/copyright/"+uuid.NewString()+"/supporting-documents", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, filesUnder(t, root))
}

func TestPrincipalFromContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	userID := uuid.New()
	c.Set("user_id", userID.String())
	c.Set("user_type", "admin")

	principal, ok := principalFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, userID, principal.UserID)
	assert.True(t, principal.Admin)

	c2, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok = principalFromContext(c2)
	assert.False(t, ok)
}

func TestRespondServiceErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
	}{
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrNotOwner, http.StatusForbidden},
		{services.ErrInvalidStep, http.StatusBadRequest},
		{services.ErrInvalidStatus, http.StatusBadRequest},
		{services.ErrDuplicateContact, http.StatusTooManyRequests},
		{services.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{services.ErrDisallowedFileType, http.StatusBadRequest},
		{services.ErrTooManyFiles, http.StatusBadRequest},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondServiceError(c, tc.err, "Application")
		assert.Equal(t, tc.status, w.Code, "error %v", tc.err)
	}
}
