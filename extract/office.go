package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Office Open XML documents are zip containers. Word keeps its body in
// word/document.xml; PowerPoint keeps one XML file per slide. In both, the
// visible text lives in <w:t>/<a:t> run elements.

func docxText(r io.Reader) (string, error) {
	zr, err := zipReader(r)
	if err != nil {
		return "", err
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", err
		}

		text, err := runText(rc, "p")
		rc.Close()
		if err != nil {
			return "", err
		}

		return text, nil
	}

	return "", nil
}

func pptxText(r io.Reader) (string, error) {
	zr, err := zipReader(r)
	if err != nil {
		return "", err
	}

	var slides []*zip.File
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slides = append(slides, f)
		}
	}

	// Sort numerically; lexicographic order would put slide10 before slide2.
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i].Name) < slideNumber(slides[j].Name)
	})

	var sb strings.Builder
	for _, f := range slides {
		rc, err := f.Open()
		if err != nil {
			return "", err
		}

		text, err := runText(rc, "p")
		rc.Close()
		if err != nil {
			return "", err
		}

		sb.WriteString(text)
	}

	return sb.String(), nil
}

func slideNumber(name string) int {
	base := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")

	n, err := strconv.Atoi(base)
	if err != nil {
		return 0
	}

	return n
}

func zipReader(r io.Reader) (*zip.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return zip.NewReader(bytes.NewReader(data), int64(len(data)))
}

// runText collects the character data of every "t" run element, appending a
// newline whenever a block element (paragraph or run group) closes.
func runText(r io.Reader, block string) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		sb    strings.Builder
		inRun bool
	)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inRun = true
			}

		case xml.EndElement:
			if t.Name.Local == "t" {
				inRun = false
			}
			if t.Name.Local == block {
				sb.WriteString("\n")
			}

		case xml.CharData:
			if inRun {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}
