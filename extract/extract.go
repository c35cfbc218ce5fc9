// Package extract pulls plain text out of uploaded documents. The file
// extension selects the extractor; anything unrecognized is a hard failure
// for the caller to surface.
package extract

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Text extracts the textual content of the named file.
// Supported extensions: .pdf, .docx, .pptx, .csv, .txt, .md.
func Text(filename string, r io.Reader) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		return plainText(r)
	case ".csv":
		return csvText(r)
	case ".pdf":
		return pdfText(r)
	case ".docx":
		return docxText(r)
	case ".pptx":
		return pptxText(r)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

func plainText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// csvText renders each record as a comma-joined line, one per row.
func csvText(r io.Reader) (string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var lines []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		lines = append(lines, strings.Join(record, ", "))
	}

	return strings.Join(lines, "\n"), nil
}

func pdfText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	content, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, content); err != nil {
		return "", err
	}

	return sb.String(), nil
}
