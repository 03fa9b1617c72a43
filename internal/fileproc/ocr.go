package fileproc

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// ExtractTextFromImage runs OCR over an image file. Used as a local
// fallback when the vision models are unavailable.
func ExtractTextFromImage(path string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage("rus", "eng"); err != nil {
		return "", fmt.Errorf("failed to set ocr languages: %w", err)
	}
	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("failed to load image for ocr: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr failed: %w", err)
	}
	return text, nil
}
