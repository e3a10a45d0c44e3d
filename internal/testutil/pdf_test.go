package testutil

import (
	"bytes"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinimalPDF_ParsesWithExpectedPageCount(t *testing.T) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	for _, n := range []int{1, 2, 5} {
		pdf := MinimalPDF(n)
		count, err := api.PageCount(bytes.NewReader(pdf), conf)
		require.NoError(t, err, "pages=%d", n)
		assert.Equal(t, n, count)
	}
}

func TestFormPDF_Parses(t *testing.T) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdf := FormPDF([]string{"alpha", "beta"}, []string{"gamma"})
	ctx, err := api.ReadContext(bytes.NewReader(pdf), conf)
	require.NoError(t, err)
	require.NoError(t, ctx.EnsurePageCount())

	rootDict, err := ctx.Catalog()
	require.NoError(t, err)
	_, found := rootDict.Find("AcroForm")
	assert.True(t, found)
}
