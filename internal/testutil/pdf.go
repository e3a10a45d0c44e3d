// Package testutil builds tiny PDF fixtures in memory for tests. The
// documents are assembled object by object with a correct xref table so they
// survive strict parsers; no fixtures live on disk.
package testutil

import (
	"bytes"
	"fmt"
	"strings"
)

type pdfBuilder struct {
	buf     bytes.Buffer
	offsets []int
}

func newPDFBuilder() *pdfBuilder {
	b := &pdfBuilder{}
	b.buf.WriteString("%PDF-1.4\n")
	return b
}

// obj appends one indirect object. Objects must be added in ascending
// number order starting at 1.
func (b *pdfBuilder) obj(body string) {
	b.offsets = append(b.offsets, b.buf.Len())
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", len(b.offsets), body)
}

func (b *pdfBuilder) finish() []byte {
	startxref := b.buf.Len()
	fmt.Fprintf(&b.buf, "xref\n0 %d\n", len(b.offsets)+1)
	b.buf.WriteString("0000000000 65535 f \n")
	for _, off := range b.offsets {
		fmt.Fprintf(&b.buf, "%010d %05d n \n", off, 0)
	}
	fmt.Fprintf(&b.buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(b.offsets)+1, startxref)
	return b.buf.Bytes()
}

// MinimalPDF returns a valid PDF with the given number of empty pages.
func MinimalPDF(pageCount int) []byte {
	if pageCount < 1 {
		pageCount = 1
	}
	b := newPDFBuilder()

	kids := make([]string, pageCount)
	for i := 0; i < pageCount; i++ {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
	}

	b.obj("<< /Type /Catalog /Pages 2 0 R >>")
	b.obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), pageCount))
	for i := 0; i < pageCount; i++ {
		b.obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}
	return b.finish()
}

// FormPDF returns a one-page PDF with an AcroForm holding one text field per
// name in textFields and one checkbox per name in checkboxFields. Checkboxes
// start unchecked with appearance states /Off and /Yes.
func FormPDF(textFields, checkboxFields []string) []byte {
	b := newPDFBuilder()

	// Objects: 1 catalog, 2 pages, 3 page, 4 appearance stream, 5.. fields.
	firstField := 5
	total := len(textFields) + len(checkboxFields)
	refs := make([]string, total)
	for i := range refs {
		refs[i] = fmt.Sprintf("%d 0 R", firstField+i)
	}
	fieldRefs := strings.Join(refs, " ")

	b.obj(fmt.Sprintf("<< /Type /Catalog /Pages 2 0 R /AcroForm << /Fields [%s] >> >>", fieldRefs))
	b.obj("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Annots [%s] >>", fieldRefs))
	b.obj("<< /Type /XObject /Subtype /Form /BBox [0 0 10 10] /Length 0 >>\nstream\n\nendstream")

	y := 700
	for _, name := range textFields {
		b.obj(fmt.Sprintf(
			"<< /Type /Annot /Subtype /Widget /FT /Tx /T (%s) /Rect [50 %d 300 %d] /P 3 0 R >>",
			name, y, y+20))
		y -= 30
	}
	for _, name := range checkboxFields {
		b.obj(fmt.Sprintf(
			"<< /Type /Annot /Subtype /Widget /FT /Btn /T (%s) /V /Off /AS /Off /Rect [50 %d 60 %d] /P 3 0 R /AP << /N << /Off 4 0 R /Yes 4 0 R >> >> >>",
			name, y, y+10))
		y -= 20
	}
	return b.finish()
}
