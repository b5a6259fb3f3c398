package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// docx and pptx are zip archives of XML parts. Only the visible text is
// wanted here, so the parts are walked token by token collecting the
// text elements (w:t for documents, a:t for slides) instead of decoding
// the full WordprocessingML/PresentationML schemas.

func wordParagraphs(data []byte) ([]string, error) {
	part, err := readZipPart(data, "word/document.xml")
	if err != nil {
		return nil, err
	}
	return collectParagraphs(part, "p", "t")
}

func slideTexts(data []byte) (int, []string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, nil, fmt.Errorf("open presentation: %w", err)
	}

	var slideFiles []*zip.File
	for _, f := range archive.File {
		if strings.HasPrefix(f.Name, "ppt/slides/slide") && strings.HasSuffix(f.Name, ".xml") {
			slideFiles = append(slideFiles, f)
		}
	}
	if len(slideFiles) == 0 {
		return 0, nil, fmt.Errorf("presentation has no slides")
	}
	sort.Slice(slideFiles, func(i, j int) bool { return slideFiles[i].Name < slideFiles[j].Name })

	var texts []string
	for _, f := range slideFiles {
		rc, err := f.Open()
		if err != nil {
			return 0, nil, fmt.Errorf("open slide %s: %w", f.Name, err)
		}
		part, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return 0, nil, fmt.Errorf("read slide %s: %w", f.Name, err)
		}
		paras, err := collectParagraphs(part, "", "t")
		if err != nil {
			return 0, nil, fmt.Errorf("parse slide %s: %w", f.Name, err)
		}
		texts = append(texts, paras...)
	}
	return len(slideFiles), texts, nil
}

func readZipPart(data []byte, name string) ([]byte, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	for _, f := range archive.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("archive part %s not found", name)
}

// collectParagraphs walks the XML once, grouping text-element content by
// the enclosing paragraph element. With no paragraph element name every
// non-empty text element becomes its own entry.
func collectParagraphs(part []byte, paragraphLocal, textLocal string) ([]string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(part))

	var paragraphs []string
	var current strings.Builder
	inText := false

	flush := func() {
		if text := strings.TrimSpace(current.String()); text != "" {
			paragraphs = append(paragraphs, text)
		}
		current.Reset()
	}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == textLocal {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case textLocal:
				inText = false
				if paragraphLocal == "" {
					flush()
				}
			case paragraphLocal:
				flush()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	flush()
	return paragraphs, nil
}
