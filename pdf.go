package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfPageWidth  = 210 // A4 width in mm
	pdfMargin     = 10
	pdfLineHeight = 5
	pdfFontSize   = 9
	pdfTabWidth   = 4
)

// generatePDF renders the files of a finished run as a syntax highlighted PDF,
// followed by the same summary the text report ends with.
func generatePDF(title string, summary *Summary, rules *ExclusionRules, outputPath string, console *Console) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	style := styles.Get("github")
	if style == nil {
		style = styles.Fallback
	}

	pdf.SetFont("Helvetica", "B", pdfFontSize+5)
	pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight*2, tr("Knowledge Base for "+title), "", "L", false)
	pdf.Ln(pdfLineHeight)

	for _, file := range summary.Files {
		pdf.SetFont("Helvetica", "B", pdfFontSize+1)
		pdf.SetTextColor(0, 0, 0)
		pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight, tr("Path: "+file.RelPath), "", "L", false)
		pdf.Line(pdfMargin, pdf.GetY(), pdfPageWidth-pdfMargin, pdf.GetY())
		pdf.Ln(pdfLineHeight / 2.0)

		content, err := readText(file.Path)
		if err != nil {
			console.Warnf("could not re-read %s for PDF output: %v", file.Path, err)
			continue
		}
		if err := writeHighlightedCode(pdf, style, content, file.Path, tr); err != nil {
			console.Warnf("syntax highlighting failed for %s: %v. Writing plain text.", file.Path, err)
			pdf.SetFont("Courier", "", pdfFontSize)
			pdf.SetTextColor(0, 0, 0)
			pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight, tr(content), "", "L", false)
		}
		pdf.Ln(pdfLineHeight)
	}

	pdf.SetFont("Helvetica", "B", pdfFontSize+1)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(pdfLineHeight)
	pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight, tr("Resumen de Ejecución"), "", "L", false)
	pdf.SetFont("Helvetica", "", pdfFontSize)
	lines := []string{
		"Archivos procesados: " + strconv.Itoa(summary.Processed),
		"Archivos omitidos: " + strconv.Itoa(summary.Skipped),
		"Tamaño máximo permitido: " + formatKB(rules.MaxFileSize) + " KB",
		"Extensiones ignoradas: " + strings.Join(rules.Extensions(), ", "),
		"Directorios ignorados: " + strings.Join(rules.Dirs(), ", "),
	}
	pdf.MultiCell(pdfPageWidth-2*pdfMargin, pdfLineHeight, tr(strings.Join(lines, "\n")), "", "L", false)

	if err := pdf.OutputFileAndClose(outputPath); err != nil {
		return fmt.Errorf("failed to save PDF to %s: %w", outputPath, err)
	}
	return nil
}

// writeHighlightedCode picks a lexer by file name, then by content, and writes
// the coloured tokens.
func writeHighlightedCode(pdf *gofpdf.Fpdf, style *chroma.Style, code, filePath string, tr func(string) string) error {
	lexer := lexers.Match(filePath)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}

	pdf.SetFont("Courier", "", pdfFontSize)
	fg := style.Get(chroma.Text).Colour
	for token := iterator(); token != chroma.EOF; token = iterator() {
		entry := style.Get(token.Type)
		fontStyle := ""
		if entry.Bold == chroma.Yes {
			fontStyle += "B"
		}
		if entry.Italic == chroma.Yes {
			fontStyle += "I"
		}
		pdf.SetFontStyle(fontStyle)

		switch {
		case entry.Colour.IsSet():
			pdf.SetTextColor(int(entry.Colour.Red()), int(entry.Colour.Green()), int(entry.Colour.Blue()))
		case fg.IsSet():
			pdf.SetTextColor(int(fg.Red()), int(fg.Green()), int(fg.Blue()))
		default:
			pdf.SetTextColor(0, 0, 0)
		}

		value := strings.ReplaceAll(token.Value, "\t", strings.Repeat(" ", pdfTabWidth))
		pdf.Write(pdfLineHeight, tr(value))
	}
	pdf.Ln(-1)
	return pdf.Error()
}
