package inventory

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseProductSheet(t *testing.T) {
	buf := workbook(t, [][]any{
		{"Name", "Category", "Type", "Stock", "Weight", "Purity", "Price Per Gram"},
		{"Gold Ring", "Rings", "standard", 4, "36.5", "22", "6100"},
		{"", "skipped", "", "", "", "", ""},
		{"Loose Silver", "Bullion", "Bulk Weight", "", "1,250.5", "", ""},
	})

	rows, err := ParseProductSheet(buf, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Row)
	assert.Equal(t, "Gold Ring", rows[0].Name)
	assert.Equal(t, TypeStandard, rows[0].Type)
	assert.Equal(t, 4, rows[0].Stock)
	assert.True(t, rows[0].Weight.Equal(grams("36.5")))
	assert.True(t, rows[0].PricePerGram.Valid)
	assert.False(t, rows[0].UnitPrice.Valid)

	assert.Equal(t, 4, rows[1].Row)
	assert.Equal(t, TypeBulkWeight, rows[1].Type)
	assert.True(t, rows[1].Weight.Equal(grams("1250.5")))
}

func TestParseProductSheetErrors(t *testing.T) {
	_, err := ParseProductSheet(workbook(t, [][]any{{"Name", "Stock"}, {"Ring", 1}}), "")
	require.ErrorContains(t, err, "missing required column: category")

	_, err = ParseProductSheet(workbook(t, [][]any{{"Name", "Category", "Stock"}, {"Ring", "Rings", "1.5"}}), "")
	require.ErrorContains(t, err, "row 2 invalid stock")

	_, err = ParseProductSheet(workbook(t, [][]any{{"Name", "Category"}}), "")
	require.ErrorContains(t, err, "no valid data rows")
}
