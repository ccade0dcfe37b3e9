package partition

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer extracts text from an image file. Implementations are used by
// the local partitioner to recover OCR text for extracted images; a nil
// Recognizer disables OCR (elements then carry empty text).
type Recognizer interface {
	Recognize(imagePath string) (string, error)
	Close() error
}

// TesseractRecognizer implements Recognizer using the Tesseract engine via
// gosseract. Requires the tesseract shared library and language data to be
// installed on the host.
type TesseractRecognizer struct {
	client *gosseract.Client
}

// NewTesseract creates a Tesseract OCR client. lang is a "+"-separated
// language list, e.g. "eng" or "eng+jpn"; empty means gosseract's default.
func NewTesseract(lang string) (*TesseractRecognizer, error) {
	client := gosseract.NewClient()
	if lang != "" {
		if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
			client.Close()
			return nil, fmt.Errorf("setting OCR language %q: %w", lang, err)
		}
	}
	return &TesseractRecognizer{client: client}, nil
}

// Recognize runs OCR over the image at path and returns the recognized
// text with surrounding whitespace trimmed.
func (r *TesseractRecognizer) Recognize(imagePath string) (string, error) {
	if err := r.client.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("setting OCR image: %w", err)
	}
	text, err := r.client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Close releases the underlying Tesseract resources.
func (r *TesseractRecognizer) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
