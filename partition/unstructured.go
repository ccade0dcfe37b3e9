package partition

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// UnstructuredConfig configures the hosted partition API client.
type UnstructuredConfig struct {
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
	Strategy string `json:"strategy" yaml:"strategy"` // defaults to "hi_res"
}

// Unstructured partitions PDFs through an Unstructured-compatible HTTP API.
// Unlike Local, its elements carry bounding polygons, so geometric caption
// matching works at full fidelity. Embedded image payloads are decoded and
// written under the images directory.
type Unstructured struct {
	cfg    UnstructuredConfig
	client *http.Client
}

// NewUnstructured creates a client for an Unstructured-compatible API.
func NewUnstructured(cfg UnstructuredConfig) *Unstructured {
	if cfg.Strategy == "" {
		cfg.Strategy = "hi_res"
	}
	return &Unstructured{
		cfg: cfg,
		// hi_res partitioning runs layout detection server-side; large
		// documents can take minutes.
		client: &http.Client{Timeout: 10 * time.Minute},
	}
}

// apiElement mirrors the wire format of the partition endpoint.
type apiElement struct {
	ElementID string `json:"element_id"`
	Type      string `json:"type"`
	Text      string `json:"text"`
	Metadata  struct {
		PageNumber  int `json:"page_number"`
		Coordinates struct {
			Points [][]float64 `json:"points"`
		} `json:"coordinates"`
		ImageBase64   string `json:"image_base64"`
		ImageMIMEType string `json:"image_mime_type"`
	} `json:"metadata"`
}

func (u *Unstructured) Partition(ctx context.Context, pdfPath, imagesDir string) (*Result, error) {
	raw, err := u.post(ctx, pdfPath)
	if err != nil {
		return nil, err
	}

	var apiElements []apiElement
	if err := json.Unmarshal(raw, &apiElements); err != nil {
		return nil, fmt.Errorf("decoding partition response: %w", err)
	}

	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating images dir: %w", err)
	}

	var (
		elements  []Element
		pageTexts = map[int][]string{}
		maxPage   int
	)
	for _, ae := range apiElements {
		page := ae.Metadata.PageNumber
		if page < 1 {
			page = 1
		}
		if page > maxPage {
			maxPage = page
		}

		el := Element{
			ID:         ae.ElementID,
			Category:   mapCategory(ae.Type, ae.Text),
			PageNumber: page,
			Text:       ae.Text,
		}
		for _, p := range ae.Metadata.Coordinates.Points {
			if len(p) == 2 {
				el.Coordinates = append(el.Coordinates, Point{X: p[0], Y: p[1]})
			}
		}

		switch el.Category {
		case CategoryImage, CategoryTable:
			if ae.Metadata.ImageBase64 != "" {
				path, err := writeImagePayload(imagesDir, ae.ElementID, ae.Metadata.ImageBase64, ae.Metadata.ImageMIMEType)
				if err != nil {
					return nil, err
				}
				el.ImagePath = path
			}
			elements = append(elements, el)
		case CategoryFigureCaption:
			elements = append(elements, el)
		default:
			// Narrative text contributes to the page text layer only.
			if ae.Text != "" {
				pageTexts[page] = append(pageTexts[page], ae.Text)
			}
		}
	}

	pages := make([]string, maxPage)
	for i := range pages {
		pages[i] = strings.Join(pageTexts[i+1], "\n")
	}

	return &Result{Pages: pages, Elements: elements}, nil
}

func (u *Unstructured) post(ctx context.Context, pdfPath string) ([]byte, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", filepath.Base(pdfPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("buffering PDF: %w", err)
	}
	for field, value := range map[string]string{
		"strategy":                  u.cfg.Strategy,
		"extract_image_block_types": `["Image","Table"]`,
		"coordinates":               "true",
	} {
		if err := mw.WriteField(field, value); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(u.cfg.BaseURL, "/") + "/general/v0/general"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if u.cfg.APIKey != "" {
		req.Header.Set("unstructured-api-key", u.cfg.APIKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("partition request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading partition response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("partition API error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// mapCategory folds the API's element taxonomy onto the categories the
// pipeline consumes. Text that merely looks like a caption is promoted,
// matching the hosted partitioner's own fallback behavior.
func mapCategory(apiType, text string) Category {
	switch apiType {
	case "Image":
		return CategoryImage
	case "Table":
		return CategoryTable
	case "FigureCaption":
		return CategoryFigureCaption
	}
	if captionLineRe.MatchString(strings.TrimSpace(text)) {
		return CategoryFigureCaption
	}
	return CategoryText
}

func writeImagePayload(imagesDir, elementID, b64, mimeType string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("decoding image payload for %s: %w", elementID, err)
	}
	ext := ".jpg"
	switch mimeType {
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	case "image/webp":
		ext = ".webp"
	}
	path := filepath.Join(imagesDir, elementID+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing image %s: %w", elementID, err)
	}
	return path, nil
}
