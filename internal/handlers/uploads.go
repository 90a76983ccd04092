package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/escola-solidaria/solidaria-api/internal/storage"
	pkghttp "github.com/escola-solidaria/solidaria-api/pkg/http"
)

var allowedUploadExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// UploadHandler handles multipart file uploads for photos and gallery images
type UploadHandler struct {
	store   storage.FileStore
	maxSize int64
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(store storage.FileStore, maxSize int64) *UploadHandler {
	return &UploadHandler{store: store, maxSize: maxSize}
}

// Upload accepts a multipart form with an "arquivo" field and stores it,
// returning the public URL. Staff only.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize)

	if err := r.ParseMultipartForm(h.maxSize); err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, "File too large or malformed form")
		return
	}

	file, header, err := r.FormFile("arquivo")
	if err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, "Missing 'arquivo' field")
		return
	}
	defer file.Close()

	url, err := h.saveOne(r, file, header.Filename)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"url":     url,
	})
}

// maxFilesPerBatch bounds UploadMultiple; the gallery editor sends at most
// a handful of images at a time.
const maxFilesPerBatch = 10

// UploadMultiple accepts a multipart form with repeated "arquivos" fields
// and stores each one, returning the public URLs in order. Staff only.
func (h *UploadHandler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize*maxFilesPerBatch)

	if err := r.ParseMultipartForm(h.maxSize * maxFilesPerBatch); err != nil {
		pkghttp.WriteError(w, http.StatusBadRequest, "Files too large or malformed form")
		return
	}

	headers := r.MultipartForm.File["arquivos"]
	if len(headers) == 0 {
		pkghttp.WriteError(w, http.StatusBadRequest, "Missing 'arquivos' field")
		return
	}
	if len(headers) > maxFilesPerBatch {
		pkghttp.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("Too many files, limit is %d per request", maxFilesPerBatch))
		return
	}

	urls := make([]string, 0, len(headers))
	for _, header := range headers {
		if header.Size > h.maxSize {
			pkghttp.WriteError(w, http.StatusBadRequest,
				fmt.Sprintf("File %q exceeds the size limit", header.Filename))
			return
		}

		file, err := header.Open()
		if err != nil {
			pkghttp.WriteError(w, http.StatusBadRequest, "Malformed form")
			return
		}

		url, err := h.saveOne(r, file, header.Filename)
		file.Close()
		if err != nil {
			writeUploadError(w, err)
			return
		}
		urls = append(urls, url)
	}

	pkghttp.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"urls":    urls,
	})
}

var (
	errUnsupportedFileType = errors.New("unsupported file type")
	errFileRead            = errors.New("failed to read file")
	errFileStore           = errors.New("failed to store file")
)

func writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errUnsupportedFileType):
		pkghttp.WriteError(w, http.StatusBadRequest, "Unsupported file type")
	case errors.Is(err, errFileRead):
		pkghttp.WriteError(w, http.StatusInternalServerError, "Failed to read file")
	default:
		pkghttp.WriteError(w, http.StatusInternalServerError, "Failed to store file")
	}
}

func (h *UploadHandler) saveOne(r *http.Request, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := allowedUploadExtensions[ext]
	if !ok {
		return "", errUnsupportedFileType
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", errFileRead
	}

	key := fmt.Sprintf("%s%s", uuid.New().String(), ext)

	url, err := h.store.Save(r.Context(), key, contentType, data)
	if err != nil {
		return "", errFileStore
	}
	return url, nil
}
