package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okezie-c/docingest/internal/config"
	"github.com/okezie-c/docingest/internal/core/ingestion_engine"
	"github.com/okezie-c/docingest/internal/models"
)

type fakeLayout struct {
	doc       *models.StructuredDocument
	err       error
	available bool
}

func (f *fakeLayout) Convert(context.Context, string, string) (*models.StructuredDocument, error) {
	return f.doc, f.err
}

func (f *fakeLayout) Available(context.Context) bool { return f.available }

func testExtractor() *ingestion_engine.DocumentExtractor {
	cfg := ingestion_engine.DefaultPipelineConfig()
	chunker := ingestion_engine.NewChunker(cfg.MaxChunkSize, cfg.OverlapFraction)
	images := ingestion_engine.NewImagePipeline(nil, nil, "", cfg)
	return ingestion_engine.NewDocumentExtractor(chunker, images)
}

func newTestHandler(layout *fakeLayout, maxUploadMB int) *DocumentHandler {
	return NewDocumentHandler(layout, testExtractor(), &config.Config{MaxUploadMB: maxUploadMB})
}

// multipartUpload builds a multipart body with an explicit part content type,
// which mime/multipart's CreateFormFile does not allow.
func multipartUpload(t *testing.T, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestProcessDocument_Success(t *testing.T) {
	layout := &fakeLayout{doc: &models.StructuredDocument{
		TotalPages: 2,
		Texts: []models.TextSpan{
			{Text: "First page text.", Page: 1},
			{Text: "Second page text.", Page: 2},
		},
	}}
	h := newTestHandler(layout, 50)

	body, contentType := multipartUpload(t, "report.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/process-document", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.ProcessDocument(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.ProcessingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.TotalPages)
	require.Len(t, resp.Chunks, 2)
	assert.Equal(t, models.ContentTypeText, resp.Chunks[0].ContentType)
	assert.GreaterOrEqual(t, resp.ProcessingTime, 0.0)
}

func TestProcessDocument_UnsupportedTypeRejected(t *testing.T) {
	h := newTestHandler(&fakeLayout{}, 50)

	body, contentType := multipartUpload(t, "notes.txt", "text/plain", []byte("plain text"))
	req := httptest.NewRequest(http.MethodPost, "/process-document", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.ProcessDocument(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type")
}

func TestProcessDocument_MissingFileField(t *testing.T) {
	h := newTestHandler(&fakeLayout{}, 50)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/process-document", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	h.ProcessDocument(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid file")
}

func TestProcessDocument_MalformedBodyRejected(t *testing.T) {
	h := newTestHandler(&fakeLayout{}, 50)

	// Cut off the closing boundary so the body fails to parse. That is a
	// 400, not the 413 reserved for size violations.
	body, contentType := multipartUpload(t, "report.pdf", "application/pdf", []byte("%PDF-1.4"))
	truncated := body.String()[:body.Len()-20]

	req := httptest.NewRequest(http.MethodPost, "/process-document",
		strings.NewReader(truncated))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.ProcessDocument(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed multipart body")
}

func TestProcessDocument_OversizeRejected(t *testing.T) {
	h := newTestHandler(&fakeLayout{}, 1)

	payload := bytes.Repeat([]byte("x"), 2<<20)
	body, contentType := multipartUpload(t, "big.pdf", "application/pdf", payload)
	req := httptest.NewRequest(http.MethodPost, "/process-document", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.ProcessDocument(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "1 MB limit")
}

func TestProcessDocument_LayoutErrorReportedInBody(t *testing.T) {
	h := newTestHandler(&fakeLayout{err: errors.New("conversion backend unreachable")}, 50)

	body, contentType := multipartUpload(t, "report.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/process-document", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.ProcessDocument(rec, req)

	// Pipeline failures after validation still answer 200 with the error in
	// the response body.
	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.ProcessingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "conversion backend unreachable")
	assert.NotNil(t, resp.Chunks)
	assert.Empty(t, resp.Chunks)
}

func TestProcessDocument_EmptyDocumentReturnsEmptyChunkList(t *testing.T) {
	h := newTestHandler(&fakeLayout{doc: &models.StructuredDocument{TotalPages: 1}}, 50)

	body, contentType := multipartUpload(t, "blank.pdf", "application/pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/process-document", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.ProcessDocument(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.ProcessingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Chunks)
	assert.Empty(t, resp.Chunks)
}

func TestHealthEndpoints(t *testing.T) {
	h := NewHealthHandler(&fakeLayout{available: true})

	rec := httptest.NewRecorder()
	h.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var root map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&root))
	assert.Equal(t, "healthy", root["status"])
	assert.Equal(t, true, root["layout_available"])

	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, true, health["layout_available"])
	formats, ok := health["supported_formats"].([]any)
	require.True(t, ok)
	assert.Len(t, formats, 4)
}

func TestHealth_LayoutUnavailable(t *testing.T) {
	h := NewHealthHandler(&fakeLayout{available: false})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	var health map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Equal(t, false, health["layout_available"])
	formats, ok := health["supported_formats"].([]any)
	require.True(t, ok)
	assert.Empty(t, formats)
}

func TestAllowedContentTypes(t *testing.T) {
	for _, ct := range []string{
		"application/pdf",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"text/html",
	} {
		_, ok := allowedContentTypes[ct]
		assert.Truef(t, ok, "%s should be accepted", ct)
	}
	_, ok := allowedContentTypes["image/png"]
	assert.False(t, ok)
}
