package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"

	"github.com/01moynul/agritech-golang/internal/apperr"
	"github.com/gabriel-vasile/mimetype"
)

// maxUploadBytes caps a single uploaded image.
const maxUploadBytes = 5 << 20

var (
	photoExts   = []string{"jpg", "jpeg", "png", "gif"}
	productExts = []string{"jpg", "jpeg", "png"}
)

// imageUpload is an uploaded file read fully into memory.
type imageUpload struct {
	Filename    string
	Ext         string
	ContentType string
	Data        []byte
}

func (u *imageUpload) Reader() io.ReadSeeker {
	return bytes.NewReader(u.Data)
}

// readFile reads fh up to the upload limit.
func readFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxUploadBytes {
		return nil, apperr.Invalid("file", "File %s is larger than %d MB", fh.Filename, maxUploadBytes>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperr.Invalid("file", "Could not read %s", fh.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, apperr.Invalid("file", "Could not read %s", fh.Filename)
	}
	if len(data) > maxUploadBytes {
		return nil, apperr.Invalid("file", "File %s is larger than %d MB", fh.Filename, maxUploadBytes>>20)
	}
	return data, nil
}

// readImage checks the extension against allowed and sniffs the content so
// a renamed non-image is refused.
func readImage(fh *multipart.FileHeader, allowed []string) (*imageUpload, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
	if !slices.Contains(allowed, ext) {
		return nil, apperr.Invalid("file", "Unsupported image format")
	}

	data, err := readFile(fh)
	if err != nil {
		return nil, err
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, apperr.Invalid("file", "Only image files are allowed")
	}
	if !slices.Contains(allowed, strings.TrimPrefix(mt.Extension(), ".")) {
		return nil, apperr.Invalid("file", "Unsupported image format: %s", mt.String())
	}

	return &imageUpload{
		Filename:    fh.Filename,
		Ext:         ext,
		ContentType: mt.String(),
		Data:        data,
	}, nil
}
