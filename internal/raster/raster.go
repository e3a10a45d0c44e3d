// Package raster normalizes an input file into an ordered sequence of page
// payloads for the OCR stage. Image inputs become a one-page document; PDF
// inputs are decomposed into single-page PDFs via pdfcpu so downstream
// providers receive one page per call.
package raster

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"medintake/internal/domain"
)

const (
	FormatPDF  = "pdf"
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatHEIC = "heic"
)

var mimeFormats = map[string]string{
	"application/pdf": FormatPDF,
	"image/jpeg":      FormatJPEG,
	"image/jpg":       FormatJPEG,
	"image/png":       FormatPNG,
	"image/heic":      FormatHEIC,
	"image/heif":      FormatHEIC,
}

// DetectFormat sniffs the file type from magic bytes, falling back to the
// declared MIME type. Sniffed content wins over the declaration.
func DetectFormat(content []byte, declaredMIME string) string {
	switch {
	case len(content) >= 5 && bytes.Equal(content[:5], []byte("%PDF-")):
		return FormatPDF
	case len(content) >= 8 && bytes.Equal(content[:8], []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}):
		return FormatPNG
	case len(content) >= 2 && content[0] == 0xff && content[1] == 0xd8:
		return FormatJPEG
	case len(content) >= 16 && (bytes.Contains(content[:16], []byte("ftypheic")) || bytes.Contains(content[:16], []byte("ftypmif1"))):
		return FormatHEIC
	}
	return mimeFormats[strings.ToLower(strings.TrimSpace(declaredMIME))]
}

// Rasterize converts raw file bytes into a RasterizedDocument. It fails with
// domain.ErrUnsupportedFormat when neither sniffing nor the declared type
// yields a supported format, and domain.ErrCorruptDocument when a PDF cannot
// be parsed at all. Individual unrenderable PDF pages are recorded in
// FailedPages and only abort the document when no page survives.
func Rasterize(fileBytes []byte, declaredMIME string) (*domain.RasterizedDocument, error) {
	if len(fileBytes) == 0 {
		return nil, fmt.Errorf("empty file: %w", domain.ErrCorruptDocument)
	}

	format := DetectFormat(fileBytes, declaredMIME)
	switch format {
	case FormatPDF:
		return rasterizePDF(fileBytes)
	case FormatJPEG, FormatPNG, FormatHEIC:
		return &domain.RasterizedDocument{
			SourceFormat: format,
			Pages: []domain.PageImage{
				{Data: fileBytes, Format: format, Index: 0},
			},
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, declaredMIME)
	}
}

func rasterizePDF(fileBytes []byte) (*domain.RasterizedDocument, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pageCount, err := api.PageCount(bytes.NewReader(fileBytes), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}
	if pageCount < 1 {
		return nil, fmt.Errorf("%w: no pages", domain.ErrCorruptDocument)
	}

	doc := &domain.RasterizedDocument{SourceFormat: FormatPDF}
	for i := 1; i <= pageCount; i++ {
		var buf bytes.Buffer
		err := api.Trim(bytes.NewReader(fileBytes), &buf, []string{strconv.Itoa(i)}, conf)
		if err != nil {
			doc.FailedPages = append(doc.FailedPages, i-1)
			continue
		}
		doc.Pages = append(doc.Pages, domain.PageImage{
			Data:   buf.Bytes(),
			Format: FormatPDF,
			Index:  i - 1,
		})
	}

	if len(doc.Pages) == 0 {
		return nil, fmt.Errorf("%w: no pages could be rendered", domain.ErrCorruptDocument)
	}
	return doc, nil
}
