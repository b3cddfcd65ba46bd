package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// Sheet layout: name, slug, sku, category slug, price, original price, stock, eco friendly, tags
const minColumns = 7

type productRow struct {
	Line         int
	CategorySlug string
	Input        service.CreateProductInput
}

type rowError struct {
	Line   int
	Reason string
}

func (e rowError) String() string {
	return fmt.Sprintf("row %d: %s", e.Line, e.Reason)
}

func readProductsFromXLSX(filePath, sheet string) ([]productRow, []rowError, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no data found in XLSX file")
	}

	products, rowErrors := parseProductRows(rows)
	return products, rowErrors, nil
}

// parseProductRows skips the header row and reports bad rows instead of failing the sheet
func parseProductRows(rows [][]string) ([]productRow, []rowError) {
	var (
		products  []productRow
		rowErrors []rowError
	)
	seenSKU := make(map[string]int)

	for i, row := range rows {
		if i == 0 {
			continue
		}
		line := i + 1
		if isBlank(row) {
			continue
		}
		if len(row) < minColumns {
			rowErrors = append(rowErrors, rowError{line, fmt.Sprintf("expected at least %d columns, got %d", minColumns, len(row))})
			continue
		}

		name := cell(row, 0)
		sku := cell(row, 2)
		categorySlug := cell(row, 3)
		if name == "" || sku == "" || categorySlug == "" {
			rowErrors = append(rowErrors, rowError{line, "name, sku and category are required"})
			continue
		}
		if first, dup := seenSKU[sku]; dup {
			rowErrors = append(rowErrors, rowError{line, fmt.Sprintf("duplicate sku %s (first seen on row %d)", sku, first)})
			continue
		}

		price, err := strconv.ParseFloat(cell(row, 4), 64)
		if err != nil || price <= 0 {
			rowErrors = append(rowErrors, rowError{line, fmt.Sprintf("invalid price %q", cell(row, 4))})
			continue
		}

		var originalPrice *float64
		if raw := cell(row, 5); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || v < 0 {
				rowErrors = append(rowErrors, rowError{line, fmt.Sprintf("invalid original price %q", raw)})
				continue
			}
			originalPrice = &v
		}

		stock, err := strconv.Atoi(cell(row, 6))
		if err != nil || stock < 0 {
			rowErrors = append(rowErrors, rowError{line, fmt.Sprintf("invalid stock %q", cell(row, 6))})
			continue
		}

		seenSKU[sku] = line
		products = append(products, productRow{
			Line:         line,
			CategorySlug: categorySlug,
			Input: service.CreateProductInput{
				Name:          name,
				Slug:          cell(row, 1),
				SKU:           sku,
				Price:         price,
				OriginalPrice: originalPrice,
				StockQuantity: stock,
				IsEcoFriendly: parseFlag(cell(row, 7)),
				Tags:          splitTags(cell(row, 8)),
			},
		})
	}

	return products, rowErrors
}

// importRows creates products one at a time so a single bad row does not abort the batch
func importRows(rows []productRow, categories repository.CategoryRepository, products service.ProductService) (int, int) {
	categoryIDs := make(map[string]uint)
	imported, failed := 0, 0

	for _, row := range rows {
		categoryID, ok := categoryIDs[row.CategorySlug]
		if !ok {
			category, err := categories.FindBySlug(row.CategorySlug)
			if err != nil {
				logger.Warn("Unknown category, row skipped", logger.Fields{
					"row":      row.Line,
					"category": row.CategorySlug,
				})
				failed++
				continue
			}
			categoryID = category.ID
			categoryIDs[row.CategorySlug] = categoryID
		}

		input := row.Input
		input.CategoryID = categoryID
		if _, err := products.CreateProduct(input); err != nil {
			logger.Warn("Failed to import product", logger.Fields{
				"row":   row.Line,
				"sku":   input.SKU,
				"error": err.Error(),
			})
			failed++
			continue
		}
		imported++
	}

	return imported, failed
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func parseFlag(v string) bool {
	switch strings.ToLower(v) {
	case "1", "y", "yes", "true":
		return true
	}
	return false
}

func splitTags(v string) []string {
	var tags []string
	for _, tag := range strings.Split(v, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, strings.ToLower(tag))
		}
	}
	return tags
}
