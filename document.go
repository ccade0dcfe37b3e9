package docparse

import "github.com/hmatsuda/docparse/partition"

// ImageCategory classifies an extracted image for output labelling.
type ImageCategory string

const (
	CategoryFigure ImageCategory = "Figure"
	CategoryTable  ImageCategory = "Table"
)

// Document is the final result of processing one PDF: pages in ascending
// page order plus the aggregate token cost. It is built exclusively by
// Process and is not mutated after being returned.
type Document struct {
	Contents []Page `json:"contents"`
	Cost     Cost   `json:"cost"`
}

// TotalPages returns the number of pages in the document.
func (d *Document) TotalPages() int { return len(d.Contents) }

// Page is one processed page: enriched text plus the images found on it.
type Page struct {
	PageNumber int           `json:"page_number"`
	Contents   string        `json:"contents"`
	Images     []ImageRecord `json:"images,omitempty"`
}

// ImageRecord is an image extracted from a page. Coordinates may be empty;
// the midpoint then defaults to the origin, which is accepted rather than
// rejected.
type ImageRecord struct {
	ID          string            `json:"id"`
	PageNumber  int               `json:"page_number"`
	Coordinates []partition.Point `json:"coordinates,omitempty"`
	ImagePath   string            `json:"image_path,omitempty"`
	OCRText     string            `json:"ocr_text,omitempty"`
	Category    ImageCategory     `json:"category"`
}

// CaptionRecord is a detected caption. Captions are consumed during
// matching only and never appear in the final Document.
type CaptionRecord struct {
	ID          string            `json:"id"`
	PageNumber  int               `json:"page_number"`
	Coordinates []partition.Point `json:"coordinates,omitempty"`
	Text        string            `json:"text"`
}

// Match associates an image with the caption found below it on the same
// page. CaptionID is empty when no caption qualifies.
type Match struct {
	ImageID   string `json:"image_id"`
	CaptionID string `json:"caption_id,omitempty"`
}

// SaveResult reports the artifacts written by Save.
type SaveResult struct {
	TextFile   string `json:"text_file"`
	ReportFile string `json:"report_file,omitempty"`
	ImagesDir  string `json:"images_dir"`
}

// collectRecords splits partitioner elements into image and caption
// records. Table elements become images with the Table category; caption
// elements keep their detection order.
func collectRecords(elements []partition.Element) ([]ImageRecord, []CaptionRecord) {
	var images []ImageRecord
	var captions []CaptionRecord
	for _, el := range elements {
		switch el.Category {
		case partition.CategoryImage, partition.CategoryTable:
			cat := CategoryFigure
			if el.Category == partition.CategoryTable {
				cat = CategoryTable
			}
			images = append(images, ImageRecord{
				ID:          el.ID,
				PageNumber:  el.PageNumber,
				Coordinates: el.Coordinates,
				ImagePath:   el.ImagePath,
				OCRText:     el.Text,
				Category:    cat,
			})
		case partition.CategoryFigureCaption:
			captions = append(captions, CaptionRecord{
				ID:          el.ID,
				PageNumber:  el.PageNumber,
				Coordinates: el.Coordinates,
				Text:        el.Text,
			})
		}
	}
	return images, captions
}
