package docparse

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/hmatsuda/docparse/llm"
)

// imageBlock is one image's formatted description block plus the metadata
// needed for per-figure splicing.
type imageBlock struct {
	label  string // "Figure 2", "Table 1", or a file base name
	number string // captured figure/table number, empty if unclassified
	text   string // the full formatted block
}

// joinBlocks combines per-image blocks with a blank-line separator.
func joinBlocks(blocks []imageBlock) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.text
	}
	return strings.Join(parts, "\n\n")
}

// classify derives an output label from the image's OCR text: leading
// "Fig(ure) N" → Figure N, leading "Tab(le) N" → Table N, otherwise the
// image file's base name with category Figure.
func (e *engine) classify(img ImageRecord) (label string, category ImageCategory, number string) {
	ocr := strings.TrimSpace(img.OCRText)
	if m := e.figureRe.FindStringSubmatch(ocr); m != nil {
		return "Figure " + m[2], CategoryFigure, m[2]
	}
	if m := e.tableRe.FindStringSubmatch(ocr); m != nil {
		return "Table " + m[2], CategoryTable, m[2]
	}
	if img.ImagePath != "" {
		return filepath.Base(img.ImagePath), CategoryFigure, ""
	}
	return "Unknown Figure", CategoryFigure, ""
}

// describePageImages produces the description blocks for one page's
// images, in input order, plus the vision-model cost. Per-image failures
// degrade to placeholder text; they never fail the page.
func (e *engine) describePageImages(ctx context.Context, images []ImageRecord) ([]imageBlock, Cost) {
	blocks := make([]imageBlock, 0, len(images))
	total := ZeroCost()
	for _, img := range images {
		// The matched caption is deliberately not forwarded: captions
		// already appear in the page body and would duplicate there.
		block, cost := e.describeImage(ctx, img, "")
		blocks = append(blocks, block)
		total = total.Add(cost)
	}
	return blocks, total
}

// describeImage builds the formatted block for one image, invoking the
// vision model unless the image file is missing.
func (e *engine) describeImage(ctx context.Context, img ImageRecord, caption string) (imageBlock, Cost) {
	label, category, number := e.classify(img)
	ocr := strings.TrimSpace(img.OCRText)

	description := ""
	cost := ZeroCost()
	if img.ImagePath != "" {
		if _, err := os.Stat(img.ImagePath); err != nil {
			// Missing file: fixed placeholder, no model call.
			description = e.prompts.notFound
		} else {
			description, cost = e.generateDescription(ctx, img, caption, ocr)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", category, label)
	if ocr != "" {
		b.WriteString("\n[Image Text]: " + ocr)
	}
	if img.ImagePath != "" {
		b.WriteString("\n[Image Path]: " + normalizeImagePath(img.ImagePath))
	}
	if description != "" {
		b.WriteString("\n[Description]: " + description)
	}
	return imageBlock{label: label, number: number, text: b.String()}, cost
}

// generateDescription invokes the vision model once for an image. Model
// and I/O failures return a placeholder containing the cause; they are
// never propagated.
func (e *engine) generateDescription(ctx context.Context, img ImageRecord, caption, ocr string) (string, Cost) {
	if e.visionLLM == nil {
		return fmt.Sprintf(e.prompts.describeFailed, ErrVisionUnconfigured), ZeroCost()
	}

	dataURL, err := encodeImage(img.ImagePath)
	if err != nil {
		slog.Warn("describe: image encoding failed", "image", img.ID, "error", err)
		return fmt.Sprintf(e.prompts.describeFailed, err), ZeroCost()
	}

	system := e.prompts.describeSystem
	if caption != "" {
		system += fmt.Sprintf(e.prompts.captionContext, caption)
	}
	if ocr != "" {
		system += fmt.Sprintf(e.prompts.ocrContext, ocr)
	}

	callCtx, cancel := e.callContext(ctx)
	defer cancel()

	resp, err := e.visionLLM.ChatWithImages(callCtx, llm.VisionChatRequest{
		Messages: []llm.VisionMessage{
			{
				Role:    "system",
				Content: []llm.ContentPart{{Type: "text", Text: system}},
			},
			{
				Role: "user",
				Content: []llm.ContentPart{
					{Type: "text", Text: e.prompts.describeUser},
					{Type: "image_url", ImageURL: &llm.ImageURL{URL: dataURL}},
				},
			},
		},
	})
	if err != nil {
		slog.Warn("describe: vision call failed", "image", img.ID, "error", err)
		return fmt.Sprintf(e.prompts.describeFailed, err), ZeroCost()
	}

	cost := Cost{InputTokens: resp.PromptTokens, OutputTokens: resp.CompletionTokens}
	if cost.InputTokens == 0 && cost.OutputTokens == 0 {
		cost = Cost{
			InputTokens:  EstimateTokens(system + " " + e.prompts.describeUser),
			OutputTokens: EstimateTokens(resp.Content),
		}
	}
	return resp.Content, cost
}

// encodeImage loads an image file, re-encodes it as JPEG and returns a
// base64 data URL for transmission. Formats the decoders don't cover are
// sent as-is with a sniffed MIME type; the re-encode is lossy by design.
func encodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading image: %w", err)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		mime := http.DetectContentType(data)
		if !strings.HasPrefix(mime, "image/") {
			return "", fmt.Errorf("decoding image: %w", err)
		}
		return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("encoding JPEG: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// normalizeImagePath rewrites a stored image path to be relative to the
// images directory: everything up to the last "images/" segment is
// dropped, so output references stay valid when the output tree moves.
func normalizeImagePath(p string) string {
	s := filepath.ToSlash(p)
	if idx := strings.LastIndex(s, "images/"); idx >= 0 {
		return "images/" + s[idx+len("images/"):]
	}
	return s
}
