// Package extract turns uploaded files into a text extract plus a
// human-readable summary. Extraction never fails the upload: errors and
// unsupported formats fold into the summary so the conversation flow is
// unaffected.
package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dx-advisor/server/internal/advisor/model"
	logx "github.com/dx-advisor/server/pkg/logger"
)

const (
	// previewRows caps the tabular extract handed to the model.
	previewRows = 10
	// previewChars caps the leading-text snippet in summaries.
	previewChars = 100
)

// File processes one upload by extension: CSV, spreadsheet (xlsx),
// word-processing document (docx) and presentation (pptx). Anything else
// yields an "unsupported" summary, not an error.
func File(filename string, data []byte) model.Attachment {
	ext := strings.ToLower(filepath.Ext(filename))

	var att model.Attachment
	var err error
	switch ext {
	case ".csv":
		att, err = fromCSV(data)
	case ".xlsx", ".xls":
		att, err = fromSpreadsheet(data)
	case ".docx":
		att, err = fromDocument(data)
	case ".pptx":
		att, err = fromPresentation(data)
	default:
		return model.Attachment{
			Summary:     fmt.Sprintf("Unsupported file format: %s", ext),
			ContentType: ext,
		}
	}
	if err != nil {
		logx.Warn().Err(err).Str("filename", filename).Msg("file extraction failed")
		return model.Attachment{
			Summary:     fmt.Sprintf("Processing error: %v", err),
			Content:     fmt.Sprintf("an error occurred while processing the file: %v", err),
			ContentType: ext,
		}
	}
	att.ContentType = ext
	return att
}

func fromCSV(data []byte) (model.Attachment, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	var header []string
	var preview [][]string
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.Attachment{}, fmt.Errorf("read csv: %w", err)
		}
		if header == nil {
			header = record
			continue
		}
		if rows < previewRows {
			preview = append(preview, record)
		}
		rows++
	}
	if header == nil {
		return model.Attachment{}, fmt.Errorf("csv file is empty")
	}

	return model.Attachment{
		Summary: fmt.Sprintf("CSV file: %d rows x %d columns. Columns: %s",
			rows, len(header), strings.Join(header, ", ")),
		Content: tabularContent(header, preview),
	}, nil
}

func fromSpreadsheet(data []byte) (model.Attachment, error) {
	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return model.Attachment{}, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return model.Attachment{}, fmt.Errorf("spreadsheet has no sheets")
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return model.Attachment{}, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return model.Attachment{}, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	header := rows[0]
	body := rows[1:]
	preview := body
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}

	return model.Attachment{
		Summary: fmt.Sprintf("Spreadsheet: %d rows x %d columns. Columns: %s",
			len(body), len(header), strings.Join(header, ", ")),
		Content: tabularContent(header, preview),
	}, nil
}

func fromDocument(data []byte) (model.Attachment, error) {
	paragraphs, err := wordParagraphs(data)
	if err != nil {
		return model.Attachment{}, err
	}
	content := strings.Join(paragraphs, "\n")
	return model.Attachment{
		Summary: fmt.Sprintf("Word document: %d paragraphs. Leading text: %s",
			len(paragraphs), snippet(content)),
		Content: content,
	}, nil
}

func fromPresentation(data []byte) (model.Attachment, error) {
	slides, texts, err := slideTexts(data)
	if err != nil {
		return model.Attachment{}, err
	}
	content := strings.Join(texts, " ")
	return model.Attachment{
		Summary: fmt.Sprintf("Presentation: %d slides. Leading text: %s",
			slides, snippet(content)),
		Content: content,
	}, nil
}

func tabularContent(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(header, ", "))
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, ", "))
	}
	return b.String()
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= previewChars {
		return s
	}
	return string(runes[:previewChars]) + "..."
}
