package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	separatorWidth  = 50
	indentUnit      = "    "
)

// reportWriter appends the sections of a knowledge base to a buffered stream.
// The first write error is kept and every later write becomes a no-op, so the
// caller only checks err once, at flush time.
type reportWriter struct {
	w   *bufio.Writer
	err error
}

func newReportWriter(w io.Writer) *reportWriter {
	return &reportWriter{w: bufio.NewWriter(w)}
}

func (rw *reportWriter) printf(format string, args ...any) {
	if rw.err != nil {
		return
	}
	_, rw.err = fmt.Fprintf(rw.w, format, args...)
}

func (rw *reportWriter) writeHeader(rootName string, at time.Time) {
	rw.printf("# Knowledge Base for %s\n", rootName)
	rw.printf("Generated at: %s\n\n", at.Format(timestampLayout))
}

// writeDirHeading labels the root distinctly; nested directories are indented
// by depth.
func (rw *reportWriter) writeDirHeading(depth int, name string) {
	if depth == 0 {
		rw.printf("\n## Root Directory\n")
		return
	}
	rw.printf("\n%s📁 %s/\n", indent(depth), name)
}

func (rw *reportWriter) writeEntry(depth int, name, relPath, content string) {
	prefix := indent(depth) + indentUnit
	separator := strings.Repeat("-", separatorWidth)

	rw.printf("\n%s📄 %s\n", prefix, name)
	rw.printf("%sPath: %s\n", prefix, relPath)
	rw.printf("%s%s\n", prefix, separator)
	rw.printf("%s\n", content)
	rw.printf("\n%s%s\n", prefix, separator)
}

func (rw *reportWriter) writeSummary(s *Summary, rules *ExclusionRules) {
	rw.printf("\n\n## Resumen de Ejecución\n")
	rw.printf("Archivos procesados: %d\n", s.Processed)
	rw.printf("Archivos omitidos: %d\n", s.Skipped)
	rw.printf("Tamaño máximo permitido: %s KB\n", formatKB(rules.MaxFileSize))
	rw.printf("Extensiones ignoradas: %s\n", strings.Join(rules.Extensions(), ", "))
	rw.printf("Directorios ignorados: %s\n", strings.Join(rules.Dirs(), ", "))
}

func (rw *reportWriter) flush() error {
	if rw.err != nil {
		return rw.err
	}
	return rw.w.Flush()
}

func indent(depth int) string {
	return strings.Repeat(indentUnit, depth)
}

// formatKB renders bytes/1000 as a decimal that always carries a fraction,
// e.g. 100000 -> "100.0", 1500 -> "1.5".
func formatKB(size int64) string {
	s := strconv.FormatFloat(float64(size)/1000, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
