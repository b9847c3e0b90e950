// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/lexfield/filings-backend/internal/config"
	"github.com/lexfield/filings-backend/internal/utils"
)

// Upload resources, matching the mounted route base paths.
const (
	ResourceCopyright = "copyright"
	ResourcePatents   = "patents"
)

// StorageService persists multipart uploads under a resource-scoped local
// directory layout, optionally mirroring to S3 when AWS credentials are
// configured.
type StorageService struct {
	cfg      *config.Config
	s3Client *s3.S3
}

// StoredFile is the metadata handed back to the application layer after a
// successful write. It maps 1:1 onto an Attachment row.
type StoredFile struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mime_type"`
}

var allowedMimePrefixes = []string{"image/", "audio/", "video/"}

var allowedMimeTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.AWS.AccessKeyID == "" {
		// Local-disk only without AWS credentials
		return &StorageService{cfg: cfg}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		cfg:      cfg,
		s3Client: s3.New(sess),
	}, nil
}

// EnsureLayout pre-creates the resource/type directory tree under the upload
// root. Called once from startup, never as an import side effect.
func (s *StorageService) EnsureLayout() error {
	for _, resource := range []string{ResourceCopyright, ResourcePatents} {
		for _, class := range []string{"images", "files"} {
			dir := filepath.Join(s.cfg.Upload.Root, resource, class)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create upload directory %s: %w", dir, err)
			}
		}
	}
	return nil
}

// SaveUpload validates and persists one multipart file. Validation failures
// reject before any disk write.
func (s *StorageService) SaveUpload(fileHeader *multipart.FileHeader, resource, field string) (*StoredFile, error) {
	if s.cfg.Upload.MaxFileSize > 0 && fileHeader.Size > s.cfg.Upload.MaxFileSize {
		return nil, ErrFileTooLarge
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if !mimeAllowed(mimeType) {
		return nil, ErrDisallowedFileType
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	filename, err := storedName(field, fileHeader.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate filename: %w", err)
	}

	dir := filepath.Join(s.cfg.Upload.Root, resource, classify(mimeType))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, fileBytes, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write uploaded file: %w", err)
	}

	// Mirror to S3 best-effort; the local copy is authoritative.
	if s.s3Client != nil {
		key := fmt.Sprintf("%s/%s/%s", resource, classify(mimeType), filename)
		if err := s.putS3(key, fileBytes, mimeType); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("S3 mirror failed")
		}
	}

	return &StoredFile{
		Filename:     filename,
		OriginalName: SanitizeName(fileHeader.Filename),
		Path:         path,
		Size:         fileHeader.Size,
		MimeType:     mimeType,
	}, nil
}

// Remove unlinks a stored file. Absence is not an error: deletes must not be
// aborted by already-missing physical files.
func (s *StorageService) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}

	if s.s3Client != nil {
		key, err := filepath.Rel(s.cfg.Upload.Root, path)
		if err == nil {
			_, err = s.s3Client.DeleteObject(&s3.DeleteObjectInput{
				Bucket: aws.String(s.cfg.AWS.S3Bucket),
				Key:    aws.String(filepath.ToSlash(key)),
			})
			if err != nil {
				logrus.WithError(err).WithField("key", key).Warn("S3 delete failed")
			}
		}
	}

	return nil
}

// PresignedURL returns a temporary S3 download link when the mirror is
// configured.
func (s *StorageService) PresignedURL(path string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	key, err := filepath.Rel(s.cfg.Upload.Root, path)
	if err != nil {
		return "", fmt.Errorf("path outside upload root: %w", err)
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.cfg.AWS.S3Bucket),
		Key:    aws.String(filepath.ToSlash(key)),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url, nil
}

func (s *StorageService) putS3(key string, fileBytes []byte, contentType string) error {
	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	})
	return err
}

func mimeAllowed(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	if allowedMimeTypes[mimeType] {
		return true
	}
	for _, prefix := range allowedMimePrefixes {
		if strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return false
}

// classify splits uploads into the two on-disk buckets.
func classify(mimeType string) string {
	if strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return "images"
	}
	return "files"
}

// SanitizeName strips everything outside [A-Za-z0-9._-] from a client-supplied
// filename.
func SanitizeName(name string) string {
	name = filepath.Base(name)
	return unsafeNameChars.ReplaceAllString(name, "")
}

// storedName builds "<field>-<unix millis>-<9 random digits><ext>". The
// timestamp+random pair keeps concurrent uploads collision-free in practice
// without hashing content.
func storedName(field, originalName string) (string, error) {
	digits, err := utils.GenerateDigits(9)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(SanitizeName(originalName)))
	return fmt.Sprintf("%s-%d-%s%s", field, time.Now().UnixMilli(), digits, ext), nil
}
