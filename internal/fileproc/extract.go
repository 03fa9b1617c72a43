package fileproc

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"
)

// Result is the outcome of processing one uploaded file.
type Result struct {
	OK      bool
	Kind    Kind
	Text    string
	Message string
}

// Process classifies the file and extracts whatever text it can.
// Image and audio files are classified only; their content is handled by
// the vision and transcription paths.
func Process(path string) Result {
	kind := Classify(path)
	switch kind {
	case KindText:
		text, err := extractPlainText(path)
		if err != nil {
			logrus.WithError(err).Warnf("text extraction failed for %s", path)
			return Result{Kind: kind, Message: "Could not read the text file."}
		}
		return Result{OK: true, Kind: kind, Text: text}
	case KindDocument:
		text, err := extractDocument(path)
		if err != nil {
			logrus.WithError(err).Warnf("document extraction failed for %s", path)
			return Result{Kind: kind, Message: "Could not extract text from the document."}
		}
		return Result{OK: true, Kind: kind, Text: text}
	case KindImage, KindAudio:
		return Result{OK: true, Kind: kind}
	default:
		return Result{Kind: KindUnknown, Message: "Unsupported file type."}
	}
}

// extractPlainText reads a text file, falling back through common legacy
// encodings when the bytes are not valid UTF-8.
func extractPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	if decoded, err := charmap.Windows1251.NewDecoder().Bytes(data); err == nil {
		return string(decoded), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text file: %w", err)
	}
	return string(decoded), nil
}

func extractDocument(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".docx", ".doc":
		// .doc goes through the same parser; genuine legacy binaries fail
		// there and degrade into the extraction-failed message.
		return extractDOCX(path)
	default:
		return "", fmt.Errorf("no text extractor for %s", filepath.Ext(path))
	}
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			logrus.WithError(err).Warnf("failed to read pdf page %d of %s", i, path)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func extractDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer zr.Close()

	for _, file := range zr.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open document.xml: %w", err)
		}
		defer rc.Close()
		return parseDOCXBody(rc)
	}
	return "", fmt.Errorf("docx has no word/document.xml")
}

func parseDOCXBody(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var sb strings.Builder
	var inText bool
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
			if t.Name.Local == "p" {
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
