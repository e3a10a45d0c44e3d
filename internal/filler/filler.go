// Package filler populates AcroForm fields of a fillable PDF template from a
// structured extraction. It works directly on the pdfcpu object model: the
// template is read into a context, field dictionaries are located by their
// fully qualified names and their value entries rewritten, then the context
// is serialized back to bytes.
package filler

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"medintake/internal/domain"
	"medintake/internal/schema"
)

// Options holds deployment-level filling options.
type Options struct {
	// Flatten marks all form fields read-only after filling so the output
	// is no longer editable.
	Flatten bool
}

// Result reports the outcome of a fill.
type Result struct {
	PDF []byte
	// MissingFields lists schema fields whose mapped AcroForm field does
	// not exist in the template. A missing mapping never aborts filling of
	// the remaining fields.
	MissingFields []string
	FilledCount   int
}

// Fill writes extracted values into the template's AcroForm fields. Boolean
// values drive checkbox states, date values are canonicalized to YYYY-MM-DD
// before writing, and fields without an extracted value are left at the
// template's defaults. A template that cannot be read or carries no AcroForm
// fails with domain.ErrFillingUnavailable.
func Fill(templatePDF []byte, fields map[string]domain.ExtractedField, mapping Mapping, s *schema.Schema, opts Options) (*Result, error) {
	if len(templatePDF) == 0 {
		return nil, fmt.Errorf("empty template: %w", domain.ErrFillingUnavailable)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(bytes.NewReader(templatePDF), conf)
	if err != nil {
		return nil, fmt.Errorf("reading template: %v: %w", err, domain.ErrFillingUnavailable)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("template page count: %v: %w", err, domain.ErrFillingUnavailable)
	}

	acroDict, fieldDicts, err := formFields(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, sf := range s.Fields() {
		extracted, ok := fields[sf.Name]
		if !ok || extracted.Value == nil {
			continue
		}
		acroName, ok := mapping[sf.Name]
		if !ok {
			acroName = sf.Name
		}
		fieldDict, ok := fieldDicts[acroName]
		if !ok {
			result.MissingFields = append(result.MissingFields, sf.Name)
			continue
		}
		if err := setFieldValue(ctx, fieldDict, sf, extracted.Value); err != nil {
			result.MissingFields = append(result.MissingFields, sf.Name)
			continue
		}
		result.FilledCount++
	}

	// Viewers regenerate widget appearances from the new values.
	acroDict["NeedAppearances"] = types.Boolean(true)

	if opts.Flatten {
		for _, d := range fieldDicts {
			flags := 0
			if obj, found := d.Find("Ff"); found {
				if i, err := ctx.DereferenceInteger(obj); err == nil && i != nil {
					flags = int(*i)
				}
			}
			d["Ff"] = types.Integer(flags | 1) // ReadOnly
		}
	}

	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("writing filled pdf: %v: %w", err, domain.ErrFillingUnavailable)
	}
	result.PDF = buf.Bytes()
	sort.Strings(result.MissingFields)
	return result, nil
}

// formFields locates the AcroForm dictionary and collects all terminal field
// dictionaries keyed by fully qualified name.
func formFields(ctx *model.Context) (types.Dict, map[string]types.Dict, error) {
	rootDict, err := ctx.Catalog()
	if err != nil {
		return nil, nil, fmt.Errorf("template catalog: %v: %w", err, domain.ErrFillingUnavailable)
	}

	acroObj, found := rootDict.Find("AcroForm")
	if !found {
		return nil, nil, fmt.Errorf("template has no AcroForm: %w", domain.ErrFillingUnavailable)
	}
	acroDict, err := ctx.DereferenceDict(acroObj)
	if err != nil || acroDict == nil {
		return nil, nil, fmt.Errorf("template AcroForm unreadable: %w", domain.ErrFillingUnavailable)
	}

	fieldsObj, found := acroDict.Find("Fields")
	if !found {
		return nil, nil, fmt.Errorf("template AcroForm has no fields: %w", domain.ErrFillingUnavailable)
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, nil, fmt.Errorf("template field array unreadable: %w", domain.ErrFillingUnavailable)
	}

	dicts := map[string]types.Dict{}
	for _, ref := range fieldsArray {
		collectFields(ctx, ref, "", dicts)
	}
	if len(dicts) == 0 {
		return nil, nil, fmt.Errorf("template AcroForm is empty: %w", domain.ErrFillingUnavailable)
	}
	return acroDict, dicts, nil
}

// collectFields walks a field tree. Non-terminal nodes contribute a partial
// name component; terminal nodes (no Kids, or Kids that are bare widgets)
// are recorded under their fully qualified dotted name.
func collectFields(ctx *model.Context, obj types.Object, prefix string, out map[string]types.Dict) {
	dict, err := ctx.DereferenceDict(obj)
	if err != nil || dict == nil {
		return
	}

	name := prefix
	if tObj, found := dict.Find("T"); found {
		if t, err := ctx.DereferenceStringOrHexLiteral(tObj, model.V10, nil); err == nil {
			if name != "" {
				name += "."
			}
			name += t
		}
	}

	if kidsObj, found := dict.Find("Kids"); found {
		kids, err := ctx.DereferenceArray(kidsObj)
		if err == nil && len(kids) > 0 && kidsAreFields(ctx, kids) {
			for _, kid := range kids {
				collectFields(ctx, kid, name, out)
			}
			return
		}
	}

	if name != "" {
		out[name] = dict
	}
}

// kidsAreFields reports whether a Kids array holds named child fields rather
// than bare widget annotations.
func kidsAreFields(ctx *model.Context, kids types.Array) bool {
	for _, kid := range kids {
		d, err := ctx.DereferenceDict(kid)
		if err != nil || d == nil {
			continue
		}
		if _, found := d.Find("T"); found {
			return true
		}
	}
	return false
}

func setFieldValue(ctx *model.Context, dict types.Dict, sf schema.Field, value any) error {
	switch sf.Type {
	case schema.TypeBool:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("field %s: not a bool", sf.Name)
		}
		state := "Off"
		if b {
			state = onStateName(ctx, dict)
		}
		dict["V"] = types.Name(state)
		dict["AS"] = types.Name(state)
		return nil
	default:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s: not a string", sf.Name)
		}
		if sf.Type == schema.TypeDate {
			if canonical, ok := schema.CanonicalDate(str); ok {
				str = canonical
			}
		}
		dict["V"] = types.StringLiteral(escapeLiteral(str))
		// Drop any stale appearance stream so NeedAppearances applies.
		delete(dict, "AP")
		return nil
	}
}

// onStateName finds the checkbox "on" appearance state by inspecting the
// widget's /AP /N dictionary, falling back to the conventional "Yes".
func onStateName(ctx *model.Context, dict types.Dict) string {
	apObj, found := dict.Find("AP")
	if !found {
		if kidsObj, ok := dict.Find("Kids"); ok {
			if kids, err := ctx.DereferenceArray(kidsObj); err == nil && len(kids) > 0 {
				if widget, err := ctx.DereferenceDict(kids[0]); err == nil && widget != nil {
					apObj, found = widget.Find("AP")
				}
			}
		}
	}
	if found {
		if apDict, err := ctx.DereferenceDict(apObj); err == nil && apDict != nil {
			if nObj, ok := apDict.Find("N"); ok {
				if nDict, err := ctx.DereferenceDict(nObj); err == nil && nDict != nil {
					names := make([]string, 0, len(nDict))
					for k := range nDict {
						if k != "Off" {
							names = append(names, k)
						}
					}
					if len(names) > 0 {
						sort.Strings(names)
						return names[0]
					}
				}
			}
		}
	}
	return "Yes"
}

// escapeLiteral escapes the characters that terminate or alter a PDF string
// literal.
func escapeLiteral(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`(`, `\(`,
		`)`, `\)`,
		"\r", `\r`,
		"\n", `\n`,
	)
	return r.Replace(s)
}
