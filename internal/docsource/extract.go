package docsource

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractText turns raw document bytes into plain text. The second return
// is false for file types the pipeline does not handle, which callers count
// as skipped rather than failed.
func ExtractText(id string, data []byte) (string, bool, error) {
	switch strings.ToLower(path.Ext(id)) {
	case ".txt", ".md":
		return string(data), true, nil
	case ".pdf":
		text, err := extractPDF(data)
		if err != nil {
			return "", false, fmt.Errorf("extract pdf: %w", err)
		}
		return text, true, nil
	default:
		return "", false, nil
	}
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
