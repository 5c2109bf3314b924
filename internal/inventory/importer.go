package inventory

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var importHeaders = map[string]string{
	"name":           "name",
	"product":        "name",
	"product name":   "name",
	"category":       "category",
	"type":           "type",
	"product type":   "type",
	"stock":          "stock",
	"qty":            "stock",
	"quantity":       "stock",
	"weight":         "weight",
	"grams":          "weight",
	"purity":         "purity",
	"karat":          "purity",
	"pricepergram":   "pricePerGram",
	"price per gram": "pricePerGram",
	"rate":           "pricePerGram",
	"unitprice":      "unitPrice",
	"unit price":     "unitPrice",
}

// ParseProductSheet reads product rows from an XLSX workbook. An empty sheet
// name selects the first sheet. Rows with a blank name are skipped.
func ParseProductSheet(reader io.Reader, sheet string) ([]ImportRow, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	if sheet == "" {
		sheets := file.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("excel file has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}

	cols := mapImportColumns(rows[0])
	for _, required := range []string{"name", "category"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	result := make([]ImportRow, 0, len(rows)-1)
	for index := 1; index < len(rows); index++ {
		cells := rows[index]
		name := strings.TrimSpace(cell(cells, cols, "name"))
		if name == "" {
			continue
		}
		row := ImportRow{
			Row:      index + 1,
			Name:     name,
			Category: strings.TrimSpace(cell(cells, cols, "category")),
			Type:     TypeStandard,
		}
		if raw := strings.TrimSpace(cell(cells, cols, "type")); raw != "" {
			row.Type = ProductType(strings.ToLower(strings.ReplaceAll(raw, " ", "_")))
		}
		if row.Stock, err = parseCount(cell(cells, cols, "stock")); err != nil {
			return nil, fmt.Errorf("row %d invalid stock: %w", row.Row, err)
		}
		if row.Weight, err = parseAmount(cell(cells, cols, "weight")); err != nil {
			return nil, fmt.Errorf("row %d invalid weight: %w", row.Row, err)
		}
		if row.Purity, err = parseOptional(cell(cells, cols, "purity")); err != nil {
			return nil, fmt.Errorf("row %d invalid purity: %w", row.Row, err)
		}
		if row.PricePerGram, err = parseOptional(cell(cells, cols, "pricePerGram")); err != nil {
			return nil, fmt.Errorf("row %d invalid pricePerGram: %w", row.Row, err)
		}
		if row.UnitPrice, err = parseOptional(cell(cells, cols, "unitPrice")); err != nil {
			return nil, fmt.Errorf("row %d invalid unitPrice: %w", row.Row, err)
		}
		result = append(result, row)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("excel file has no valid data rows")
	}
	return result, nil
}

func mapImportColumns(header []string) map[string]int {
	mapped := make(map[string]int)
	for idx, col := range header {
		value := strings.TrimPrefix(strings.TrimSpace(col), "\ufeff")
		value = strings.ToLower(strings.ReplaceAll(value, "_", " "))
		value = strings.Join(strings.Fields(value), " ")
		canonical, ok := importHeaders[value]
		if !ok {
			continue
		}
		if _, exists := mapped[canonical]; !exists {
			mapped[canonical] = idx
		}
	}
	return mapped
}

func cell(row []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseCount(raw string) (int, error) {
	value := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	if math.Mod(f, 1) != 0 {
		return 0, fmt.Errorf("must be an integer")
	}
	return int(f), nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	value := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number")
	}
	return d, nil
}

func parseOptional(raw string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := parseAmount(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
