// Package docparse turns a PDF into a normalized text document: page text
// is cleaned up by a chat model, embedded images are described by a vision
// model grounded on their OCR text, and the generated descriptions are
// spliced back into each page next to the first figure/table reference.
package docparse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hmatsuda/docparse/llm"
	"github.com/hmatsuda/docparse/partition"
)

// Engine is the public entry point of the pipeline.
type Engine interface {
	// Process partitions pdfPath, enriches every page, and returns the
	// assembled Document. Extracted images land under outputDir/images.
	// Repeated calls with the same input produce structurally equivalent
	// Documents up to model non-determinism.
	Process(ctx context.Context, pdfPath, outputDir string) (*Document, error)

	// Save serializes the Document's pages to a text file under
	// outputDir ("=== Page N ===" headings), optionally alongside an
	// XLSX report. Image bytes were already placed by Process.
	Save(doc *Document, outputDir string) (*SaveResult, error)

	// Close releases partitioner resources (OCR handles).
	Close() error
}

type engine struct {
	cfg         Config
	chatLLM     llm.Provider
	visionLLM   llm.VisionProvider
	partitioner partition.Partitioner
	ocr         partition.Recognizer
	prompts     promptSet

	figureRe *regexp.Regexp
	tableRe  *regexp.Regexp
	refRe    *regexp.Regexp
}

// New creates an engine from configuration.
func New(cfg Config) (Engine, error) {
	chatLLM, err := llm.NewProvider(llm.Config{
		Provider: cfg.Chat.Provider,
		Model:    cfg.Chat.Model,
		BaseURL:  cfg.Chat.BaseURL,
		APIKey:   cfg.Chat.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat provider: %w", err)
	}

	var visionLLM llm.VisionProvider
	if cfg.Vision.Provider != "" {
		p, err := llm.NewProvider(llm.Config{
			Provider: cfg.Vision.Provider,
			Model:    cfg.Vision.Model,
			BaseURL:  cfg.Vision.BaseURL,
			APIKey:   cfg.Vision.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("creating vision provider: %w", err)
		}
		vp, ok := p.(llm.VisionProvider)
		if !ok {
			return nil, fmt.Errorf("%w: provider %q cannot send images", ErrInvalidConfig, cfg.Vision.Provider)
		}
		visionLLM = vp
	}

	var (
		partitioner partition.Partitioner
		ocr         partition.Recognizer
	)
	switch cfg.Partitioner {
	case "unstructured":
		if cfg.Unstructured == nil {
			return nil, fmt.Errorf("%w: unstructured partitioner selected without settings", ErrInvalidConfig)
		}
		partitioner = partition.NewUnstructured(*cfg.Unstructured)
	case "", "local":
		if cfg.OCRLanguages != "" {
			ocr, err = partition.NewTesseract(cfg.OCRLanguages)
			if err != nil {
				return nil, fmt.Errorf("creating OCR client: %w", err)
			}
		}
		partitioner = partition.NewLocal(ocr)
	default:
		return nil, fmt.Errorf("%w: unknown partitioner %q", ErrInvalidConfig, cfg.Partitioner)
	}

	e, err := newEngine(cfg, chatLLM, visionLLM, partitioner)
	if err != nil {
		if ocr != nil {
			ocr.Close()
		}
		return nil, err
	}
	e.ocr = ocr
	return e, nil
}

// newEngine wires an engine from already-built collaborators. Kept
// separate from New so tests can inject mocks.
func newEngine(cfg Config, chat llm.Provider, vision llm.VisionProvider, p partition.Partitioner) (*engine, error) {
	switch cfg.OnRewriteError {
	case "", RewriteAbort, RewriteKeepOriginal:
	default:
		return nil, fmt.Errorf("%w: unknown on_rewrite_error policy %q", ErrInvalidConfig, cfg.OnRewriteError)
	}

	figureRe, err := compilePattern(cfg.Patterns.Figure, defaultFigurePattern)
	if err != nil {
		return nil, fmt.Errorf("%w: figure pattern: %v", ErrInvalidConfig, err)
	}
	tableRe, err := compilePattern(cfg.Patterns.Table, defaultTablePattern)
	if err != nil {
		return nil, fmt.Errorf("%w: table pattern: %v", ErrInvalidConfig, err)
	}
	refRe, err := compilePattern(cfg.Patterns.Reference, defaultReferencePattern)
	if err != nil {
		return nil, fmt.Errorf("%w: reference pattern: %v", ErrInvalidConfig, err)
	}

	return &engine{
		cfg:         cfg,
		chatLLM:     chat,
		visionLLM:   vision,
		partitioner: p,
		prompts:     promptsFor(cfg.Language),
		figureRe:    figureRe,
		tableRe:     tableRe,
		refRe:       refRe,
	}, nil
}

func compilePattern(pattern, fallback string) (*regexp.Regexp, error) {
	if pattern == "" {
		pattern = fallback
	}
	return regexp.Compile("(?i)" + pattern)
}

// callContext bounds one model invocation with the configured timeout.
func (e *engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.RequestTimeoutSeconds <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(e.cfg.RequestTimeoutSeconds)*time.Second)
}

// Process runs the full pipeline for one PDF.
func (e *engine) Process(ctx context.Context, pdfPath, outputDir string) (*Document, error) {
	imagesDir := filepath.Join(outputDir, "images")
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	slog.Info("process: partitioning", "pdf", pdfPath)
	start := time.Now()
	res, err := e.partitioner.Partition(ctx, pdfPath, imagesDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPartitionFailed, err)
	}

	images, captions := collectRecords(res.Elements)
	matches := MatchCaptions(images, captions)
	for _, m := range matches {
		slog.Debug("process: caption match", "image", m.ImageID, "caption", m.CaptionID)
	}
	slog.Info("process: partitioned",
		"pages", len(res.Pages), "images", len(images), "captions", len(captions),
		"elapsed", time.Since(start).Round(time.Millisecond))

	// An image belongs to the page recorded on it, independent of any
	// caption match outcome.
	byPage := make(map[int][]ImageRecord)
	for _, img := range images {
		byPage[img.PageNumber] = append(byPage[img.PageNumber], img)
	}

	doc := &Document{Contents: make([]Page, len(res.Pages))}
	if e.cfg.PageConcurrency > 1 {
		if err := e.processPagesConcurrent(ctx, res.Pages, byPage, doc); err != nil {
			return nil, err
		}
	} else {
		total := ZeroCost()
		for i, text := range res.Pages {
			pageNum := i + 1
			slog.Info("process: page", "page", pageNum, "of", len(res.Pages))
			page, cost, err := e.processPage(ctx, pageNum, text, byPage[pageNum])
			if err != nil {
				return nil, err
			}
			doc.Contents[i] = page
			total = total.Add(cost)
		}
		doc.Cost = total
	}

	slog.Info("process: document assembled",
		"pages", doc.TotalPages(),
		"input_tokens", doc.Cost.InputTokens,
		"output_tokens", doc.Cost.OutputTokens,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return doc, nil
}

// processPagesConcurrent runs pages through a bounded worker pool. Pages
// land at their index so document order is by page number regardless of
// completion order; cost accumulation is commutative so the arrival order
// behind the mutex does not matter. The first fatal error wins and later
// completions are discarded.
func (e *engine) processPagesConcurrent(ctx context.Context, pages []string, byPage map[int][]ImageRecord, doc *Document) error {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		sem      = make(chan struct{}, e.cfg.PageConcurrency)
		firstErr error
		total    = ZeroCost()
	)

	for i := range pages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				if firstErr == nil {
					firstErr = ctx.Err()
				}
				mu.Unlock()
				return
			}

			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed {
				return
			}

			page, cost, err := e.processPage(ctx, i+1, pages[i], byPage[i+1])

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			doc.Contents[i] = page
			total = total.Add(cost)
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	doc.Cost = total
	return nil
}

// processPage rewrites one page's text and, when the page carries images,
// splices their generated descriptions into it. The returned cost covers
// the text rewrite; vision cost is included only when configured.
func (e *engine) processPage(ctx context.Context, pageNum int, text string, images []ImageRecord) (Page, Cost, error) {
	rewritten, cost, err := e.rewritePage(ctx, pageNum, text)
	if err != nil {
		if e.cfg.OnRewriteError != RewriteKeepOriginal {
			return Page{}, ZeroCost(), err
		}
		slog.Warn("process: rewrite failed, keeping original text", "page", pageNum, "error", err)
		rewritten, cost = text, ZeroCost()
	}

	contents := rewritten
	if len(images) > 0 {
		slog.Info("process: describing images", "page", pageNum, "images", len(images))
		blocks, visionCost := e.describePageImages(ctx, images)
		if e.cfg.IncludeVisionCost {
			cost = cost.Add(visionCost)
		}
		if e.cfg.SpliceEachFigure {
			contents = e.spliceEachFigure(contents, blocks)
		} else {
			contents = e.spliceDescriptions(contents, joinBlocks(blocks))
		}
	}

	return Page{PageNumber: pageNum, Contents: contents, Images: images}, cost, nil
}

// Save writes the document text artifact (and optional XLSX report).
func (e *engine) Save(doc *Document, outputDir string) (*SaveResult, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}

	var b strings.Builder
	for _, page := range doc.Contents {
		fmt.Fprintf(&b, "=== Page %d ===\n", page.PageNumber)
		b.WriteString(page.Contents)
		b.WriteString("\n\n")
	}

	name := "parsed_document_" + time.Now().Format("20060102_150405") + ".txt"
	textPath := filepath.Join(outputDir, name)
	if err := os.WriteFile(textPath, []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("writing text file: %w", err)
	}

	result := &SaveResult{
		TextFile:  textPath,
		ImagesDir: filepath.Join(outputDir, "images"),
	}
	if e.cfg.WriteReport {
		reportPath := strings.TrimSuffix(textPath, ".txt") + ".xlsx"
		if err := writeReport(doc, reportPath); err != nil {
			return nil, fmt.Errorf("writing report: %w", err)
		}
		result.ReportFile = reportPath
	}

	slog.Info("save: wrote artifacts", "text", textPath, "pages", doc.TotalPages())
	return result, nil
}

// Close releases resources held by the partitioner.
func (e *engine) Close() error {
	if e.ocr != nil {
		return e.ocr.Close()
	}
	return nil
}
