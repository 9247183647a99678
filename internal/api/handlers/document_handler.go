package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/okezie-c/docingest/internal/config"
	"github.com/okezie-c/docingest/internal/core"
	"github.com/okezie-c/docingest/internal/core/ingestion_engine"
	"github.com/okezie-c/docingest/internal/models"
)

// allowedContentTypes is the upload allow-list. Anything else is rejected
// before any processing happens.
var allowedContentTypes = map[string]string{
	"application/pdf": "pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "docx",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "pptx",
	"text/html": "html",
}

type DocumentHandler struct {
	layout    core.LayoutEngine
	extractor *ingestion_engine.DocumentExtractor
	cfg       *config.Config
}

func NewDocumentHandler(layout core.LayoutEngine, extractor *ingestion_engine.DocumentExtractor, cfg *config.Config) *DocumentHandler {
	return &DocumentHandler{layout: layout, extractor: extractor, cfg: cfg}
}

// ProcessDocument accepts a multipart upload, runs layout analysis and
// chunk extraction synchronously, and returns the chunk sequence. Pipeline
// errors after validation are reported in the response body, not as HTTP
// errors, so callers always get a ProcessingResponse.
func (h *DocumentHandler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	maxBytes := int64(h.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds the %d MB limit", h.cfg.MaxUploadMB))
			return
		}
		writeError(w, http.StatusBadRequest, "malformed multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if _, ok := allowedContentTypes[contentType]; !ok {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported file type: %s (supported: PDF, DOCX, PPTX, HTML)", contentType))
		return
	}

	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not buffer upload")
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		writeError(w, http.StatusInternalServerError, "could not buffer upload")
		return
	}
	tmp.Close()

	log.Printf("processing upload %s (%d bytes)", header.Filename, header.Size)

	doc, err := h.layout.Convert(r.Context(), tmpPath, contentType)
	if err != nil {
		writeJSON(w, http.StatusOK, models.ProcessingResponse{
			Success:        false,
			Chunks:         []models.ContentChunk{},
			ProcessingTime: time.Since(start).Seconds(),
			Error:          err.Error(),
		})
		return
	}

	chunks, err := h.extractor.Extract(r.Context(), doc, header.Filename)
	if err != nil {
		writeJSON(w, http.StatusOK, models.ProcessingResponse{
			Success:        false,
			Chunks:         []models.ContentChunk{},
			TotalPages:     doc.TotalPages,
			ProcessingTime: time.Since(start).Seconds(),
			Error:          err.Error(),
		})
		return
	}
	if chunks == nil {
		chunks = []models.ContentChunk{}
	}

	elapsed := time.Since(start)
	log.Printf("processed %s: %d chunks, %d pages in %.2fs",
		header.Filename, len(chunks), doc.TotalPages, elapsed.Seconds())

	writeJSON(w, http.StatusOK, models.ProcessingResponse{
		Success:        true,
		Chunks:         chunks,
		TotalPages:     doc.TotalPages,
		ProcessingTime: elapsed.Seconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
