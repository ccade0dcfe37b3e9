// Package partition turns a PDF file into per-page text plus a flat list
// of visual elements (images, tables, captions) tagged with page numbers,
// bounding coordinates and OCR text. Extracted image bytes are written
// under a caller-specified images directory.
package partition

import "context"

// Category classifies a detected element.
type Category string

const (
	CategoryImage         Category = "Image"
	CategoryTable         Category = "Table"
	CategoryFigureCaption Category = "FigureCaption"
	CategoryText          Category = "Text"
)

// Point is a coordinate in the source PDF's coordinate system
// (y increases top to bottom).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Element is one detected region on a page. Coordinates may be empty when
// the backing partitioner cannot recover layout geometry; consumers must
// treat that as valid input, not an error.
type Element struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	PageNumber  int      `json:"page_number"`
	Coordinates []Point  `json:"coordinates,omitempty"`
	Text        string   `json:"text,omitempty"`
	ImagePath   string   `json:"image_path,omitempty"`
}

// Result is the output of partitioning one PDF.
type Result struct {
	// Pages holds the native text layer of each page, index 0 = page 1.
	// A page that yields no text is present as an empty string so that
	// page numbering stays contiguous.
	Pages []string

	// Elements lists detected images, tables and captions in document order.
	Elements []Element
}

// Partitioner extracts pages and visual elements from a PDF file.
// Image bytes for Image/Table elements are written under imagesDir and
// referenced by Element.ImagePath.
type Partitioner interface {
	Partition(ctx context.Context, pdfPath, imagesDir string) (*Result, error)
}
