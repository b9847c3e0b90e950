package services

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexfield/filings-backend/internal/config"
)

func newTestStorage(t *testing.T) *StorageService {
	t.Helper()
	cfg := &config.Config{}
	cfg.Upload.Root = t.TempDir()
	cfg.Upload.MaxFileSize = 1 << 20
	cfg.Upload.MaxFiles = 10

	svc, err := NewStorageService(cfg)
	require.NoError(t, err)
	return svc
}

// makeFileHeader builds a real multipart.FileHeader by round-tripping a
// form through the multipart reader, the same shape gin hands handlers.
func makeFileHeader(t *testing.T, filename, contentType string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	files := form.File["file"]
	require.Len(t, files, 1)
	return files[0]
}

func TestSaveUploadWritesFile(t *testing.T) {
	svc := newTestStorage(t)
	fh := makeFileHeader(t, "My Manuscript.pdf", "application/pdf", []byte("%PDF-1.4 test"))

	stored, err := svc.SaveUpload(fh, ResourceCopyright, "primary")
	require.NoError(t, err)

	assert.Equal(t, "MyManuscript.pdf", stored.OriginalName)
	assert.Equal(t, "application/pdf", stored.MimeType)
	assert.Equal(t, int64(len("%PDF-1.4 test")), stored.Size)
	assert.Regexp(t, regexp.MustCompile(`^primary-\d+-\d{9}\.pdf$`), stored.Filename)

	// PDFs land in the files bucket under the resource directory.
	assert.Equal(t, filepath.Join(svc.cfg.Upload.Root, "copyright", "files", stored.Filename), stored.Path)
	data, err := os.ReadFile(stored.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4 test"), data)
}

func TestSaveUploadImagesBucket(t *testing.T) {
	svc := newTestStorage(t)
	fh := makeFileHeader(t, "figure.png", "image/png", []byte{0x89, 0x50, 0x4E, 0x47})

	stored, err := svc.SaveUpload(fh, ResourcePatents, "drawings")
	require.NoError(t, err)
	assert.Contains(t, stored.Path, filepath.Join("patents", "images"))
}

func TestSaveUploadRejectsDisallowedType(t *testing.T) {
	svc := newTestStorage(t)
	fh := makeFileHeader(t, "payload.exe", "application/x-msdownload", []byte("MZ"))

	_, err := svc.SaveUpload(fh, ResourceCopyright, "primary")
	require.ErrorIs(t, err, ErrDisallowedFileType)

	// A rejected upload must leave nothing on disk.
	entries, err := os.ReadDir(svc.cfg.Upload.Root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveUploadRejectsOversized(t *testing.T) {
	svc := newTestStorage(t)
	svc.cfg.Upload.MaxFileSize = 4
	fh := makeFileHeader(t, "big.pdf", "application/pdf", []byte("12345"))

	_, err := svc.SaveUpload(fh, ResourceCopyright, "primary")
	require.ErrorIs(t, err, ErrFileTooLarge)
}

func TestSaveUploadAllowsCharsetSuffix(t *testing.T) {
	svc := newTestStorage(t)
	fh := makeFileHeader(t, "notes.pdf", "application/pdf; charset=binary", []byte("x"))

	_, err := svc.SaveUpload(fh, ResourceCopyright, "documents")
	require.NoError(t, err)
}

func TestRemoveToleratesMissingFile(t *testing.T) {
	svc := newTestStorage(t)
	require.NoError(t, svc.Remove(filepath.Join(svc.cfg.Upload.Root, "copyright", "files", "gone.pdf")))
}

func TestRemoveDeletesFile(t *testing.T) {
	svc := newTestStorage(t)
	fh := makeFileHeader(t, "doc.pdf", "application/pdf", []byte("x"))
	stored, err := svc.SaveUpload(fh, ResourceCopyright, "documents")
	require.NoError(t, err)

	require.NoError(t, svc.Remove(stored.Path))
	_, err = os.Stat(stored.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestEnsureLayout(t *testing.T) {
	svc := newTestStorage(t)
	require.NoError(t, svc.EnsureLayout())

	for _, dir := range []string{
		filepath.Join("copyright", "images"),
		filepath.Join("copyright", "files"),
		filepath.Join("patents", "images"),
		filepath.Join("patents", "files"),
	} {
		info, err := os.Stat(filepath.Join(svc.cfg.Upload.Root, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "report.pdf", SanitizeName("report.pdf"))
	assert.Equal(t, "myreport.pdf", SanitizeName("my report!.pdf"))
	assert.Equal(t, "passwd", SanitizeName("../../etc/passwd"))
	assert.Equal(t, "rsum.docx", SanitizeName("résumé.docx"))
}

func TestMimeAllowed(t *testing.T) {
	assert.True(t, mimeAllowed("image/jpeg"))
	assert.True(t, mimeAllowed("audio/mpeg"))
	assert.True(t, mimeAllowed("video/mp4"))
	assert.True(t, mimeAllowed("application/pdf"))
	assert.True(t, mimeAllowed("application/msword"))
	assert.True(t, mimeAllowed("APPLICATION/PDF"))

	assert.False(t, mimeAllowed("application/zip"))
	assert.False(t, mimeAllowed("text/html"))
	assert.False(t, mimeAllowed(""))
}
