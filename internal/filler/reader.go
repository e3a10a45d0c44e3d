package filler

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"medintake/internal/domain"
)

// ReadFieldValues reads the current AcroForm field values of a PDF, keyed by
// fully qualified field name. Text and date widgets yield strings, button
// widgets yield bools. Fields without a value are omitted.
func ReadFieldValues(pdf []byte) (map[string]any, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(pdf), conf)
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %v: %w", err, domain.ErrFillingUnavailable)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("page count: %v: %w", err, domain.ErrFillingUnavailable)
	}

	_, fieldDicts, err := formFields(ctx)
	if err != nil {
		return nil, err
	}

	values := map[string]any{}
	for name, dict := range fieldDicts {
		vObj, found := dict.Find("V")
		if !found {
			continue
		}
		ft := fieldType(ctx, dict)
		switch ft {
		case "Btn":
			if state, err := ctx.DereferenceName(vObj, model.V10, nil); err == nil {
				values[name] = state != "Off"
			}
		default:
			if s, err := ctx.DereferenceStringOrHexLiteral(vObj, model.V10, nil); err == nil {
				values[name] = s
			}
		}
	}
	return values, nil
}

// fieldType resolves the /FT entry, walking up /Parent for inherited types.
func fieldType(ctx *model.Context, dict types.Dict) string {
	for i := 0; i < 8 && dict != nil; i++ {
		if ftObj, found := dict.Find("FT"); found {
			if ft, err := ctx.DereferenceName(ftObj, model.V10, nil); err == nil {
				return string(ft)
			}
		}
		parentObj, found := dict.Find("Parent")
		if !found {
			return ""
		}
		parent, err := ctx.DereferenceDict(parentObj)
		if err != nil {
			return ""
		}
		dict = parent
	}
	return ""
}
