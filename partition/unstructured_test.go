package partition

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMapCategory(t *testing.T) {
	tests := []struct {
		apiType string
		text    string
		want    Category
	}{
		{apiType: "Image", want: CategoryImage},
		{apiType: "Table", want: CategoryTable},
		{apiType: "FigureCaption", want: CategoryFigureCaption},
		{apiType: "NarrativeText", text: "Plain prose.", want: CategoryText},
		{apiType: "Title", text: "Chapter 1", want: CategoryText},
		// Caption-looking narrative text is promoted.
		{apiType: "NarrativeText", text: "Figure 3: overview", want: CategoryFigureCaption},
		{apiType: "NarrativeText", text: "  表2 結果  ", want: CategoryFigureCaption},
	}
	for _, tt := range tests {
		if got := mapCategory(tt.apiType, tt.text); got != tt.want {
			t.Errorf("mapCategory(%q, %q) = %q, want %q", tt.apiType, tt.text, got, tt.want)
		}
	}
}

func TestUnstructuredPartition(t *testing.T) {
	pngPayload := []byte{0x89, 'P', 'N', 'G', 0, 0, 0, 0}

	elements := []map[string]any{
		{
			"element_id": "title-1",
			"type":       "Title",
			"text":       "Annual Report",
			"metadata":   map[string]any{"page_number": 1},
		},
		{
			"element_id": "narr-1",
			"type":       "NarrativeText",
			"text":       "Revenues grew steadily.",
			"metadata":   map[string]any{"page_number": 1},
		},
		{
			"element_id": "img-1",
			"type":       "Image",
			"metadata": map[string]any{
				"page_number": 2,
				"coordinates": map[string]any{
					"points": [][]float64{{0, 0}, {100, 0}, {100, 80}, {0, 80}},
				},
				"image_base64":    base64.StdEncoding.EncodeToString(pngPayload),
				"image_mime_type": "image/png",
			},
		},
		{
			"element_id": "cap-1",
			"type":       "FigureCaption",
			"text":       "Figure 1: revenue by quarter",
			"metadata": map[string]any{
				"page_number": 2,
				"coordinates": map[string]any{
					"points": [][]float64{{0, 90}, {100, 90}, {100, 100}, {0, 100}},
				},
			},
		},
		{
			"element_id": "narr-2",
			"type":       "NarrativeText",
			"text":       "See Figure 1 for details.",
			"metadata":   map[string]any{"page_number": 2},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/general/v0/general" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("unstructured-api-key"); got != "key123" {
			t.Errorf("api key header = %q", got)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("parsing multipart: %v", err)
		}
		if got := r.FormValue("strategy"); got != "hi_res" {
			t.Errorf("strategy = %q", got)
		}
		if _, _, err := r.FormFile("files"); err != nil {
			t.Errorf("missing files part: %v", err)
		}
		json.NewEncoder(w).Encode(elements)
	}))
	defer srv.Close()

	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4 stub"), 0o644); err != nil {
		t.Fatal(err)
	}
	imagesDir := filepath.Join(dir, "images")

	u := NewUnstructured(UnstructuredConfig{BaseURL: srv.URL, APIKey: "key123"})
	res, err := u.Partition(context.Background(), pdfPath, imagesDir)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}

	if len(res.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(res.Pages))
	}
	if !strings.Contains(res.Pages[0], "Annual Report") ||
		!strings.Contains(res.Pages[0], "Revenues grew steadily.") {
		t.Errorf("page 1 text = %q", res.Pages[0])
	}
	if res.Pages[1] != "See Figure 1 for details." {
		t.Errorf("page 2 text = %q", res.Pages[1])
	}

	if len(res.Elements) != 2 {
		t.Fatalf("elements = %d, want image + caption", len(res.Elements))
	}

	img := res.Elements[0]
	if img.Category != CategoryImage || img.PageNumber != 2 {
		t.Errorf("image element = %+v", img)
	}
	if len(img.Coordinates) != 4 || img.Coordinates[2] != (Point{X: 100, Y: 80}) {
		t.Errorf("image coordinates = %+v", img.Coordinates)
	}
	data, err := os.ReadFile(img.ImagePath)
	if err != nil {
		t.Fatalf("image payload not written: %v", err)
	}
	if string(data) != string(pngPayload) {
		t.Errorf("image payload corrupted")
	}
	if filepath.Ext(img.ImagePath) != ".png" {
		t.Errorf("image extension = %q, want .png", filepath.Ext(img.ImagePath))
	}

	capt := res.Elements[1]
	if capt.Category != CategoryFigureCaption || capt.Text != "Figure 1: revenue by quarter" {
		t.Errorf("caption element = %+v", capt)
	}
}

func TestUnstructuredPartitionAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF"), 0o644); err != nil {
		t.Fatal(err)
	}

	u := NewUnstructured(UnstructuredConfig{BaseURL: srv.URL})
	if _, err := u.Partition(context.Background(), pdfPath, filepath.Join(dir, "images")); err == nil {
		t.Fatal("expected error for 500 response")
	}
}
