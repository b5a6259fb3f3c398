package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildZip(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestFileCSV(t *testing.T) {
	data := []byte("region,revenue\nNorth,100\nSouth,250\nEast,75\n")

	att := File("sales.csv", data)

	assert.Equal(t, "CSV file: 3 rows x 2 columns. Columns: region, revenue", att.Summary)
	assert.Equal(t, ".csv", att.ContentType)
	assert.Contains(t, att.Content, "region, revenue")
	assert.Contains(t, att.Content, "South, 250")
}

func TestFileCSVPreviewCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,value\n")
	for i := 0; i < 30; i++ {
		b.WriteString("r,1\n")
	}

	att := File("big.csv", []byte(b.String()))

	assert.Contains(t, att.Summary, "30 rows")
	// header + previewRows lines only
	assert.Len(t, strings.Split(att.Content, "\n"), 1+previewRows)
}

func TestFileEmptyCSVFoldsIntoSummary(t *testing.T) {
	att := File("empty.csv", nil)

	assert.Contains(t, att.Summary, "Processing error")
	assert.Equal(t, ".csv", att.ContentType)
}

func TestFileUnsupportedExtension(t *testing.T) {
	att := File("notes.pdf", []byte("%PDF-1.4"))

	assert.Equal(t, "Unsupported file format: .pdf", att.Summary)
	assert.Empty(t, att.Content)
	assert.Equal(t, ".pdf", att.ContentType)
}

func TestFileSpreadsheet(t *testing.T) {
	book := excelize.NewFile()
	sheet := book.GetSheetName(0)
	require.NoError(t, book.SetSheetRow(sheet, "A1", &[]any{"tool", "owner"}))
	require.NoError(t, book.SetSheetRow(sheet, "A2", &[]any{"chatbot", "support"}))
	require.NoError(t, book.SetSheetRow(sheet, "A3", &[]any{"OCR", "finance"}))
	var buf bytes.Buffer
	require.NoError(t, book.Write(&buf))

	att := File("tools.xlsx", buf.Bytes())

	assert.Equal(t, "Spreadsheet: 2 rows x 2 columns. Columns: tool, owner", att.Summary)
	assert.Contains(t, att.Content, "chatbot, support")
	assert.Equal(t, ".xlsx", att.ContentType)
}

func TestFileCorruptSpreadsheetFoldsIntoSummary(t *testing.T) {
	att := File("broken.xlsx", []byte("not a zip archive"))

	assert.Contains(t, att.Summary, "Processing error")
	assert.Contains(t, att.Content, "an error occurred while processing the file")
}

func TestFileWordDocument(t *testing.T) {
	document := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Quarterly review of </w:t></w:r><w:r><w:t>the sales process.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Reporting is manual today.</w:t></w:r></w:p>
    <w:p></w:p>
  </w:body>
</w:document>`
	data := buildZip(t, map[string]string{"word/document.xml": document})

	att := File("review.docx", data)

	assert.Contains(t, att.Summary, "Word document: 2 paragraphs.")
	assert.Contains(t, att.Content, "Quarterly review of the sales process.")
	assert.Contains(t, att.Content, "Reporting is manual today.")
}

func TestFileWordDocumentMissingPart(t *testing.T) {
	data := buildZip(t, map[string]string{"other.xml": "<x/>"})

	att := File("review.docx", data)

	assert.Contains(t, att.Summary, "Processing error")
}

func TestFilePresentation(t *testing.T) {
	slide := func(text string) string {
		return `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
       xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld>
</p:sld>`
	}
	data := buildZip(t, map[string]string{
		"ppt/slides/slide1.xml": slide("Digitise onboarding"),
		"ppt/slides/slide2.xml": slide("Current pain points"),
	})

	att := File("deck.pptx", data)

	assert.Contains(t, att.Summary, "Presentation: 2 slides.")
	assert.Contains(t, att.Content, "Digitise onboarding")
	assert.Contains(t, att.Content, "Current pain points")
}

func TestSnippetTruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", previewChars+50)
	out := snippet(long)
	assert.Len(t, []rune(out), previewChars+3)
	assert.True(t, strings.HasSuffix(out, "..."))

	short := "brief"
	assert.Equal(t, short, snippet(short))
}
