package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"orderpick/internal/domain"
)

// CSVParser implements FileParser for delimited uploads. The operator maps
// order fields to the file's column headers, so exports from any remote
// system can be loaded regardless of its header naming.
type CSVParser struct{}

// Field names accepted as mapping keys.
const (
	fieldOrderNumber   = "order_number"
	fieldCustomerName  = "customer_name"
	fieldSKU           = "sku"
	fieldQuantity      = "quantity"
	fieldLocation      = "location"
	fieldBuyerPostcode = "buyer_postcode"
	fieldImageURL      = "image_url"
	fieldItemName      = "item_name"
	fieldChannelType   = "channel_type"
	fieldChannel       = "channel"
	fieldPackagingType = "packaging_type"
)

// Parse reads the upload row by row. mapping maps field names to column
// headers; order_number and sku are required, everything else is optional.
// Rows missing either required value are skipped. Returns ErrImportFormat
// when the header is unreadable, a required field is unmapped, or no row
// yields an order.
func (CSVParser) Parse(ctx context.Context, file io.Reader, mapping map[string]string, fileDate string) ([]domain.Order, error) {
	cr := csv.NewReader(file)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing header row", domain.ErrImportFormat)
	}

	colIndex := map[string]int{}
	for i, h := range header {
		colIndex[strings.ToLower(strings.TrimSpace(h))] = i
	}

	fieldCol := map[string]int{}
	for field, column := range mapping {
		i, ok := colIndex[strings.ToLower(strings.TrimSpace(column))]
		if !ok {
			return nil, fmt.Errorf("%w: mapped column %q not in header", domain.ErrImportFormat, column)
		}
		fieldCol[field] = i
	}
	for _, required := range []string{fieldOrderNumber, fieldSKU} {
		if _, ok := fieldCol[required]; !ok {
			return nil, fmt.Errorf("%w: field %q not mapped", domain.ErrImportFormat, required)
		}
	}

	cell := func(row []string, field string) string {
		i, ok := fieldCol[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var orders []domain.Order
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrImportFormat, err)
		}

		o := domain.Order{
			OrderNumber:   cell(row, fieldOrderNumber),
			CustomerName:  cell(row, fieldCustomerName),
			SKU:           cell(row, fieldSKU),
			Quantity:      1,
			Location:      cell(row, fieldLocation),
			BuyerPostcode: cell(row, fieldBuyerPostcode),
			ImageURL:      cell(row, fieldImageURL),
			ItemName:      cell(row, fieldItemName),
			FileDate:      fileDate,
			ChannelType:   cell(row, fieldChannelType),
			Channel:       cell(row, fieldChannel),
			PackagingType: cell(row, fieldPackagingType),
		}
		if o.OrderNumber == "" || o.SKU == "" {
			continue
		}
		if q, err := strconv.Atoi(cell(row, fieldQuantity)); err == nil && q > 0 {
			o.Quantity = q
		}
		orders = append(orders, o)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: no parsable rows", domain.ErrImportFormat)
	}
	return orders, nil
}
