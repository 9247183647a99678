// Package layout binds external document-layout engines to the core's
// plain StructuredDocument shape. All accessor probing against engine
// output happens here, at the boundary, never downstream.
package layout

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/okezie-c/docingest/internal/core"
	"github.com/okezie-c/docingest/internal/models"
)

// DoclingClient is a REST binding to a docling layout-analysis sidecar.
type DoclingClient struct {
	baseURL string
	client  *http.Client
}

func NewDoclingClient(baseURL string) *DoclingClient {
	return &DoclingClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Minute},
	}
}

// Wire shapes of the sidecar's /convert response. Picture payloads may
// arrive under several accessors depending on which docling path produced
// them; resolvePicturePayload tries them in fixed priority order.
type doclingDocument struct {
	TotalPages int              `json:"total_pages"`
	Texts      []doclingText    `json:"texts"`
	Pictures   []doclingPicture `json:"pictures"`
	Tables     []doclingTable   `json:"tables"`
}

type doclingBBox struct {
	L float64 `json:"l"`
	T float64 `json:"t"`
	R float64 `json:"r"`
	B float64 `json:"b"`
}

type doclingProv struct {
	PageNo int          `json:"page_no"`
	BBox   *doclingBBox `json:"bbox"`
}

type doclingText struct {
	Text string        `json:"text"`
	Prov []doclingProv `json:"prov"`
}

type doclingPicture struct {
	Prov    []doclingProv `json:"prov"`
	Image   *doclingImage `json:"image"`
	Data    string        `json:"data"`
	Content string        `json:"content"`
}

type doclingImage struct {
	URI string `json:"uri"`
}

type doclingTable struct {
	Prov    []doclingProv `json:"prov"`
	Caption string        `json:"caption"`
	Headers []string      `json:"headers"`
	Rows    [][]string    `json:"rows"`
}

func (c *DoclingClient) Convert(ctx context.Context, filePath string, contentType string) (*models.StructuredDocument, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy file into multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("docling convert: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("docling convert: %s", resp.Status)
	}

	var doc doclingDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode docling response: %w", err)
	}

	return translate(&doc), nil
}

func (c *DoclingClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 300
}

// translate maps the wire document into core shapes, canonicalizing every
// page reference to 1-based and resolving picture payloads.
func translate(doc *doclingDocument) *models.StructuredDocument {
	out := &models.StructuredDocument{TotalPages: doc.TotalPages}
	if out.TotalPages < 1 {
		out.TotalPages = 1
	}

	for _, t := range doc.Texts {
		page, coords := provenance(t.Prov)
		out.Texts = append(out.Texts, models.TextSpan{
			Text:        t.Text,
			Page:        page,
			Coordinates: coords,
		})
	}

	for i, p := range doc.Pictures {
		page, coords := provenance(p.Prov)
		data := resolvePicturePayload(p)
		if data == nil {
			log.Printf("layout: no extractable image payload for picture %d on page %d", i, page)
		}
		out.Pictures = append(out.Pictures, models.Picture{
			Data:        data,
			Page:        page,
			Coordinates: coords,
		})
	}

	for _, t := range doc.Tables {
		page, coords := provenance(t.Prov)
		out.Tables = append(out.Tables, models.Table{
			Page:        page,
			Headers:     t.Headers,
			Rows:        t.Rows,
			Caption:     t.Caption,
			Coordinates: coords,
		})
	}

	return out
}

func provenance(prov []doclingProv) (int, *models.Coordinates) {
	if len(prov) == 0 {
		return 1, nil
	}
	page := prov[0].PageNo
	if page < 1 {
		page = 1
	}
	var coords *models.Coordinates
	if bb := prov[0].BBox; bb != nil {
		coords = &models.Coordinates{
			X:      bb.L,
			Y:      bb.T,
			Width:  bb.R - bb.L,
			Height: bb.B - bb.T,
		}
	}
	return page, coords
}

// resolvePicturePayload tries the known payload accessors in fixed
// priority order; first success wins.
func resolvePicturePayload(p doclingPicture) []byte {
	if p.Image != nil && p.Image.URI != "" {
		if data := decodeDataURL(p.Image.URI); data != nil {
			return data
		}
	}
	if p.Data != "" {
		if data, err := base64.StdEncoding.DecodeString(p.Data); err == nil {
			return data
		}
	}
	if p.Content != "" {
		if data, err := base64.StdEncoding.DecodeString(p.Content); err == nil {
			return data
		}
	}
	return nil
}

func decodeDataURL(uri string) []byte {
	if !strings.HasPrefix(uri, "data:image") {
		return nil
	}
	idx := strings.Index(uri, ",")
	if idx < 0 {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(uri[idx+1:])
	if err != nil {
		return nil
	}
	return data
}

var _ core.LayoutEngine = (*DoclingClient)(nil)
