// Package upload stages multipart file uploads in a temporary directory.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/iconidentify/vidshare/internal/config"
	"github.com/iconidentify/vidshare/internal/domain"
	"github.com/iconidentify/vidshare/internal/media"
)

const (
	sniffLen     = 512
	maxValueSize = 1 << 20
)

// Field describes an expected file field.
type Field struct {
	Name     string
	Kind     media.Kind
	Required bool
	MaxSize  int64
	// Allowed lists accepted content type prefixes, e.g. "image/".
	Allowed []string
}

// File is a staged upload on local disk.
type File struct {
	Field       string
	Filename    string
	Path        string
	ContentType string
	Size        int64
	Kind        media.Kind
}

// Upload converts the file into a media upload.
func (f *File) Upload() media.Upload {
	return media.Upload{Path: f.Path, ContentType: f.ContentType, Kind: f.Kind}
}

// Staged holds the files and plain values of one multipart request.
type Staged struct {
	Values url.Values
	files  map[string]*File
	logger *slog.Logger
}

// File returns the staged file for field, or nil.
func (s *Staged) File(field string) *File {
	if s == nil {
		return nil
	}
	return s.files[field]
}

// Value returns the first plain form value for key.
func (s *Staged) Value(key string) string {
	if s == nil {
		return ""
	}
	return s.Values.Get(key)
}

// Has reports whether the form carried key at all.
func (s *Staged) Has(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Values[key]
	return ok
}

// Cleanup removes every staged file. It is safe to call more than once.
func (s *Staged) Cleanup() {
	if s == nil {
		return
	}
	for name, f := range s.files {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("failed to remove staged file", "path", f.Path, "error", err)
		}
		delete(s.files, name)
	}
}

// Stager writes multipart uploads to a temporary directory.
type Stager struct {
	dir    string
	logger *slog.Logger
}

// NewStager creates a stager writing into cfg.TempDir.
func NewStager(cfg config.UploadConfig, logger *slog.Logger) (*Stager, error) {
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Stager{dir: cfg.TempDir, logger: logger}, nil
}

// Stage reads the multipart body of r, writing each expected file field to
// disk. Unexpected file fields are discarded. On error nothing stays on disk.
func (s *Stager) Stage(r *http.Request, fields ...Field) (*Staged, error) {
	byName := make(map[string]Field, len(fields))
	var total int64 = maxValueSize * 4
	for _, f := range fields {
		byName[f.Name] = f
		total += f.MaxSize
	}
	r.Body = http.MaxBytesReader(nil, r.Body, total)

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, domain.NewValidationError("body", "expected multipart/form-data")
	}

	staged := &Staged{
		Values: url.Values{},
		files:  make(map[string]*File),
		logger: s.logger,
	}

	if err := s.readParts(mr, byName, staged); err != nil {
		staged.Cleanup()
		return nil, err
	}

	var missing []string
	for _, f := range fields {
		if f.Required && staged.files[f.Name] == nil {
			missing = append(missing, f.Name+" is required")
		}
	}
	if len(missing) > 0 {
		staged.Cleanup()
		return nil, &domain.ValidationError{Message: "missing required files", Details: missing}
	}

	return staged, nil
}

func (s *Stager) readParts(mr *multipart.Reader, byName map[string]Field, staged *Staged) error {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return readError(err)
		}

		name := part.FormName()
		if part.FileName() == "" {
			var buf bytes.Buffer
			n, err := io.Copy(&buf, io.LimitReader(part, maxValueSize+1))
			part.Close()
			if err != nil {
				return readError(err)
			}
			if n > maxValueSize {
				return domain.NewValidationError(name, "value too large")
			}
			staged.Values.Add(name, buf.String())
			continue
		}

		field, ok := byName[name]
		if !ok {
			_, _ = io.Copy(io.Discard, part)
			part.Close()
			continue
		}
		if staged.files[name] != nil {
			part.Close()
			return domain.NewValidationError(name, "only one file allowed")
		}

		f, err := s.writePart(part, field)
		part.Close()
		if f != nil {
			staged.files[name] = f
		}
		if err != nil {
			return err
		}
	}
}

// writePart copies one file part to disk. It returns the file even on error
// so the caller can clean it up.
func (s *Stager) writePart(part *multipart.Part, field Field) (*File, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(part, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, readError(err)
	}
	head = head[:n]
	if n == 0 {
		return nil, domain.NewValidationError(field.Name, "file is empty")
	}

	contentType := detectContentType(head, part.Header.Get("Content-Type"))
	if !allowed(contentType, field.Allowed) {
		return nil, domain.NewValidationError(field.Name, "unsupported file type "+contentType)
	}

	base := filepath.Base(part.FileName())
	path := filepath.Join(s.dir, uuid.NewString()+"-"+sanitize(base))
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}
	f := &File{
		Field:       field.Name,
		Filename:    base,
		Path:        path,
		ContentType: contentType,
		Kind:        field.Kind,
	}

	limit := field.MaxSize
	if limit <= 0 {
		limit = 1 << 62
	}
	written, err := io.Copy(out, io.LimitReader(io.MultiReader(bytes.NewReader(head), part), limit+1))
	closeErr := out.Close()
	f.Size = written
	if err != nil {
		return f, readError(err)
	}
	if closeErr != nil {
		return f, fmt.Errorf("write staged file: %w", closeErr)
	}
	if written > limit {
		return f, domain.NewValidationError(field.Name, fmt.Sprintf("file exceeds %d bytes", limit))
	}
	return f, nil
}

func detectContentType(head []byte, declared string) string {
	detected := http.DetectContentType(head)
	if detected != "application/octet-stream" {
		return detected
	}
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "" {
		return mt
	}
	return detected
}

func allowed(contentType string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(contentType, p) {
			return true
		}
	}
	return false
}

func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if len(name) > 100 {
		name = name[len(name)-100:]
	}
	return name
}

func readError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.NewValidationError("body", fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	}
	return domain.NewValidationError("body", "malformed multipart body: "+err.Error())
}
