package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/todiane/djangify/blog"
)

const maxUploadBytes = 10 << 20

// allowedImageTypes maps accepted file extensions to the sniffed content
// type prefixes they may carry. SVG sniffs as XML or plain text.
var allowedImageTypes = map[string][]string{
	".jpg":  {"image/jpeg"},
	".jpeg": {"image/jpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
	".webp": {"image/webp"},
	".svg":  {"image/svg+xml", "text/xml", "text/plain"},
}

// saveUpload validates and stores a multipart image upload, returning
// its public /media/ path.
func (h *Handler) saveUpload(r *http.Request, field string) (string, error) {
	err := r.ParseMultipartForm(maxUploadBytes)
	if err != nil {
		return "", blog.ValidationError{Field: field, Detail: "invalid multipart form"}
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", blog.ValidationError{Field: field, Detail: "file is required"}
		}

		return "", fmt.Errorf("failed to read form file: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	if header.Size > maxUploadBytes {
		return "", blog.ValidationError{Field: field, Detail: "file exceeds the 10MB limit"}
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))

	accepted, ok := allowedImageTypes[ext]
	if !ok {
		return "", blog.ValidationError{Field: field, Detail: fmt.Sprintf("unsupported file extension %q", ext)}
	}

	head := make([]byte, 512)

	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read file header: %w", err)
	}

	head = head[:n]

	sniffed := http.DetectContentType(head)
	if !contentTypeAccepted(sniffed, accepted) {
		return "", blog.ValidationError{Field: field, Detail: fmt.Sprintf("file content %q does not match extension %q", sniffed, ext)}
	}

	name := uuid.NewString() + ext

	path, err := h.writeUpload(name, head, file)
	if err != nil {
		return "", err
	}

	return path, nil
}

func contentTypeAccepted(sniffed string, accepted []string) bool {
	for _, prefix := range accepted {
		if strings.HasPrefix(sniffed, prefix) {
			return true
		}
	}

	return false
}

func (h *Handler) writeUpload(name string, head []byte, file multipart.File) (string, error) {
	err := os.MkdirAll(h.mediaRoot, 0o750)
	if err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	out, err := os.Create(filepath.Join(h.mediaRoot, name))
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}

	defer func() {
		_ = out.Close()
	}()

	_, err = out.Write(head)
	if err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	_, err = io.Copy(out, file)
	if err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}

	return "/media/" + name, nil
}
