// Package textract pulls plain text out of uploaded resumes and ingested documents.
package textract

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrInvalidDocument   = errors.New("invalid document")
)

// Extract dispatches on the file extension (.pdf, .docx, .txt).
func Extract(filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		pages, err := PDFPages(data)
		if err != nil {
			return "", err
		}
		nonEmpty := make([]string, 0, len(pages))
		for _, p := range pages {
			if strings.TrimSpace(p) != "" {
				nonEmpty = append(nonEmpty, p)
			}
		}
		return strings.Join(nonEmpty, "\n"), nil
	case ".docx":
		return DOCX(data)
	case ".txt":
		return PlainText(data), nil
	default:
		return "", ErrUnsupportedFormat
	}
}
