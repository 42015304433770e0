package service

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// testPDFPage describes one page of a generated PDF: its MediaBox and the lines of text
// drawn top to bottom.
type testPDFPage struct {
	Width, Height float64
	Lines         []string
}

// buildTestPDF writes a minimal, well-formed PDF with a Helvetica font, one content
// stream per page and an optional Info dictionary.
func buildTestPDF(info map[string]string, pages ...testPDFPage) []byte {
	var objects []string

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	)

	for i, p := range pages {
		var content strings.Builder
		for j, line := range p.Lines {
			fmt.Fprintf(&content, "BT /F1 12 Tf 72 %.0f Td (%s) Tj ET\n", p.Height-72-float64(j)*36, escapePDFString(line))
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.0f %.0f] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
				p.Width, p.Height, 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		)
	}

	infoRef := ""
	if len(info) > 0 {
		keys := make([]string, 0, len(info))
		for k := range info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var dict strings.Builder
		dict.WriteString("<<")
		for _, k := range keys {
			fmt.Fprintf(&dict, " /%s (%s)", k, escapePDFString(info[k]))
		}
		dict.WriteString(" >>")
		objects = append(objects, dict.String())
		infoRef = fmt.Sprintf(" /Info %d 0 R", len(objects))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R%s >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, infoRef, xref)
	return buf.Bytes()
}

func escapePDFString(s string) string {
	return strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(s)
}
