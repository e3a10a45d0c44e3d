package filler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medintake/internal/domain"
	"medintake/internal/filler"
	"medintake/internal/schema"
	"medintake/internal/testutil"
)

func templatePDF() []byte {
	return testutil.FormPDF(
		[]string{"patient_first_name", "patient_last_name", "date_of_birth", "visit_date"},
		[]string{"is_smoker", "consent_to_treat"},
	)
}

func field(name string, value any) domain.ExtractedField {
	return domain.ExtractedField{Name: name, Value: value, Confidence: 0.9}
}

func TestFill_RoundTrip(t *testing.T) {
	s := schema.V1()
	fields := map[string]domain.ExtractedField{
		"patient_first_name": field("patient_first_name", "Jane"),
		"patient_last_name":  field("patient_last_name", "Doe (Smith)"),
		"date_of_birth":      field("date_of_birth", "1985-03-15"),
		"is_smoker":          field("is_smoker", false),
		"consent_to_treat":   field("consent_to_treat", true),
	}

	res, err := filler.Fill(templatePDF(), fields, filler.DefaultMapping(s), s, filler.Options{})
	require.NoError(t, err)
	assert.Equal(t, 5, res.FilledCount)
	assert.Empty(t, res.MissingFields)
	require.NotEmpty(t, res.PDF)

	values, err := filler.ReadFieldValues(res.PDF)
	require.NoError(t, err)
	assert.Equal(t, "Jane", values["patient_first_name"])
	assert.Equal(t, "Doe (Smith)", values["patient_last_name"])
	assert.Equal(t, "1985-03-15", values["date_of_birth"])
	assert.Equal(t, false, values["is_smoker"])
	assert.Equal(t, true, values["consent_to_treat"])
}

func TestFill_DatesCanonicalized(t *testing.T) {
	s := schema.V1()
	fields := map[string]domain.ExtractedField{
		"date_of_birth": field("date_of_birth", "03/15/1985"),
		"visit_date":    field("visit_date", "March 2, 2024"),
	}

	res, err := filler.Fill(templatePDF(), fields, filler.DefaultMapping(s), s, filler.Options{})
	require.NoError(t, err)

	values, err := filler.ReadFieldValues(res.PDF)
	require.NoError(t, err)
	assert.Equal(t, "1985-03-15", values["date_of_birth"])
	assert.Equal(t, "2024-03-02", values["visit_date"])
}

func TestFill_RepeatFillSameValues(t *testing.T) {
	s := schema.V1()
	fields := map[string]domain.ExtractedField{
		"patient_first_name": field("patient_first_name", "Jane"),
		"is_smoker":          field("is_smoker", true),
	}
	mapping := filler.DefaultMapping(s)

	first, err := filler.Fill(templatePDF(), fields, mapping, s, filler.Options{})
	require.NoError(t, err)

	// Filling an already-filled form with the same extraction leaves the
	// field values unchanged.
	second, err := filler.Fill(first.PDF, fields, mapping, s, filler.Options{})
	require.NoError(t, err)

	firstValues, err := filler.ReadFieldValues(first.PDF)
	require.NoError(t, err)
	secondValues, err := filler.ReadFieldValues(second.PDF)
	require.NoError(t, err)
	assert.Equal(t, firstValues, secondValues)
}

func TestFill_MissingTemplateFieldsCollected(t *testing.T) {
	s := schema.V1()
	fields := map[string]domain.ExtractedField{
		"patient_first_name": field("patient_first_name", "Jane"),
		"ssn":                field("ssn", "123-45-6789"),
		"email":              field("email", "jane@example.org"),
	}

	res, err := filler.Fill(templatePDF(), fields, filler.DefaultMapping(s), s, filler.Options{})
	require.NoError(t, err)

	// Fields absent from the template are reported, not fatal.
	assert.Equal(t, 1, res.FilledCount)
	assert.Equal(t, []string{"email", "ssn"}, res.MissingFields)
	assert.NotEmpty(t, res.PDF)
}

func TestFill_NilValuesSkipped(t *testing.T) {
	s := schema.V1()
	fields := map[string]domain.ExtractedField{
		"patient_first_name": field("patient_first_name", nil),
	}

	res, err := filler.Fill(templatePDF(), fields, filler.DefaultMapping(s), s, filler.Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.FilledCount)
	assert.Empty(t, res.MissingFields)
}

func TestFill_MappingOverride(t *testing.T) {
	s := schema.V1()
	template := testutil.FormPDF([]string{"fname"}, nil)
	mapping := filler.DefaultMapping(s).WithOverrides(s, map[string]string{
		"patient_first_name": "fname",
	})

	fields := map[string]domain.ExtractedField{
		"patient_first_name": field("patient_first_name", "Jane"),
	}

	res, err := filler.Fill(template, fields, mapping, s, filler.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilledCount)

	values, err := filler.ReadFieldValues(res.PDF)
	require.NoError(t, err)
	assert.Equal(t, "Jane", values["fname"])
}

func TestFill_EmptyTemplate(t *testing.T) {
	_, err := filler.Fill(nil, nil, filler.Mapping{}, schema.V1(), filler.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFillingUnavailable)
}

func TestFill_NoAcroForm(t *testing.T) {
	_, err := filler.Fill(testutil.MinimalPDF(1), nil, filler.Mapping{}, schema.V1(), filler.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFillingUnavailable)
}

func TestFill_GarbageTemplate(t *testing.T) {
	_, err := filler.Fill([]byte("not a pdf"), nil, filler.Mapping{}, schema.V1(), filler.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFillingUnavailable)
}

func TestDefaultMapping(t *testing.T) {
	s := schema.V1()
	m := filler.DefaultMapping(s)
	assert.Len(t, m, s.Len())
	assert.Equal(t, "patient_first_name", m["patient_first_name"])

	// Overrides for unknown schema fields are ignored.
	m2 := m.WithOverrides(s, map[string]string{
		"patient_first_name": "fname",
		"not_a_field":        "x",
	})
	assert.Equal(t, "fname", m2["patient_first_name"])
	_, ok := m2["not_a_field"]
	assert.False(t, ok)

	// The original mapping is not mutated.
	assert.Equal(t, "patient_first_name", m["patient_first_name"])
}
