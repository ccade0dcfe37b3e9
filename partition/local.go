package partition

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// captionLineRe recognises caption-looking lines in the native text layer:
// a figure/table keyword (English or Japanese) followed by a number.
var captionLineRe = regexp.MustCompile(`(?i)^(figure|fig\.?|table|tab\.?|図|表)\s*\d+`)

// pdfcpu encodes the source page into extracted image file names, e.g.
// report_page_3_Im0.png. Older releases omit the "page" token.
var imagePageRe = regexp.MustCompile(`_(?:page_)?(\d+)_`)

// Local partitions a PDF without external services: the native text layer
// is read with ledongthuc/pdf, embedded images are extracted with pdfcpu,
// and OCR text is recovered via an optional Recognizer.
//
// Local elements carry no bounding coordinates (neither library exposes
// layout geometry), so caption matching degrades to the (0,0)-midpoint
// behavior. Use Unstructured when geometric matching matters.
type Local struct {
	ocr Recognizer
}

// NewLocal creates a local partitioner. ocr may be nil to skip OCR.
func NewLocal(ocr Recognizer) *Local {
	return &Local{ocr: ocr}
}

func (l *Local) Partition(ctx context.Context, pdfPath, imagesDir string) (*Result, error) {
	pages, err := l.extractPages(pdfPath)
	if err != nil {
		return nil, err
	}

	var elements []Element
	for i, text := range pages {
		elements = append(elements, captionElements(text, i+1)...)
	}

	images, err := l.extractImages(ctx, pdfPath, imagesDir)
	if err != nil {
		// Text-only output is still useful; image extraction failure is
		// reported but not fatal, matching the page-text contract.
		slog.Warn("partition: image extraction failed", "pdf", pdfPath, "error", err)
	}
	elements = append(elements, images...)

	return &Result{Pages: pages, Elements: elements}, nil
}

func (l *Local) extractPages(pdfPath string) ([]string, error) {
	f, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Keep the slot so page numbering stays contiguous.
			slog.Warn("partition: page text extraction failed", "page", i, "error", err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}

func (l *Local) extractImages(ctx context.Context, pdfPath, imagesDir string) ([]Element, error) {
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating images dir: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImagesFile(pdfPath, imagesDir, nil, conf); err != nil {
		return nil, fmt.Errorf("extracting images: %w", err)
	}

	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		return nil, fmt.Errorf("listing images dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp":
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var elements []Element
	for _, name := range names {
		if ctx.Err() != nil {
			return elements, ctx.Err()
		}
		path := filepath.Join(imagesDir, name)
		el := Element{
			ID:         strings.TrimSuffix(name, filepath.Ext(name)),
			Category:   CategoryImage,
			PageNumber: pageFromImageName(name),
			ImagePath:  path,
		}
		if l.ocr != nil {
			text, err := l.ocr.Recognize(path)
			if err != nil {
				slog.Warn("partition: OCR failed", "image", name, "error", err)
			} else {
				el.Text = text
			}
		}
		elements = append(elements, el)
	}
	return elements, nil
}

// pageFromImageName recovers the page number pdfcpu embeds in an extracted
// image file name. Unrecognised names map to page 1.
func pageFromImageName(name string) int {
	m := imagePageRe.FindStringSubmatch(name)
	if m == nil {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// captionElements scans a page's text layer for caption-looking lines.
// These carry no coordinates; they exist so downstream matching still sees
// captions when no layout-aware partitioner is available.
func captionElements(pageText string, pageNum int) []Element {
	if pageText == "" {
		return nil
	}
	var elements []Element
	for i, line := range strings.Split(pageText, "\n") {
		line = strings.TrimSpace(line)
		if !captionLineRe.MatchString(line) {
			continue
		}
		elements = append(elements, Element{
			ID:         fmt.Sprintf("caption-%d-%d", pageNum, i),
			Category:   CategoryFigureCaption,
			PageNumber: pageNum,
			Text:       line,
		})
	}
	return elements
}
