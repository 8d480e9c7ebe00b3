package source

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"orderpick/internal/domain"
)

func TestCSVParserParse(t *testing.T) {
	ctx := context.Background()
	parser := CSVParser{}

	mapping := map[string]string{
		"order_number":   "Reference",
		"customer_name":  "Buyer",
		"sku":            "Item Code",
		"quantity":       "Qty",
		"buyer_postcode": "Postcode",
	}

	t.Run("maps operator-chosen columns", func(t *testing.T) {
		file := strings.NewReader(
			"Reference,Buyer,Item Code,Qty,Postcode\n" +
				"ORD-1,Jane Smith,SKU-1,3,LU1 2AB\n" +
				"ORD-2,Bob Jones,SKU-2,,MK4 5CD\n",
		)

		orders, err := parser.Parse(ctx, file, mapping, "2026-03-01")
		require.NoError(t, err)
		require.Len(t, orders, 2)

		require.Equal(t, "ORD-1", orders[0].OrderNumber)
		require.Equal(t, "Jane Smith", orders[0].CustomerName)
		require.Equal(t, 3, orders[0].Quantity)
		require.Equal(t, "LU1 2AB", orders[0].BuyerPostcode)
		require.Equal(t, "2026-03-01", orders[0].FileDate)

		// Blank quantity falls back to 1.
		require.Equal(t, 1, orders[1].Quantity)
	})

	t.Run("header lookup is case-insensitive", func(t *testing.T) {
		file := strings.NewReader("REFERENCE,buyer,item code,Qty,Postcode\nORD-1,Jane,SKU-1,1,\n")

		orders, err := parser.Parse(ctx, file, mapping, "")
		require.NoError(t, err)
		require.Len(t, orders, 1)
	})

	t.Run("rows without required values are skipped", func(t *testing.T) {
		file := strings.NewReader(
			"Reference,Buyer,Item Code,Qty,Postcode\n" +
				",Jane,SKU-1,1,\n" +
				"ORD-2,Bob,SKU-2,1,\n",
		)

		orders, err := parser.Parse(ctx, file, mapping, "")
		require.NoError(t, err)
		require.Len(t, orders, 1)
		require.Equal(t, "ORD-2", orders[0].OrderNumber)
	})

	t.Run("mapped column missing from header", func(t *testing.T) {
		file := strings.NewReader("Reference,Buyer\nORD-1,Jane\n")

		_, err := parser.Parse(ctx, file, mapping, "")
		require.ErrorIs(t, err, domain.ErrImportFormat)
	})

	t.Run("required field not mapped", func(t *testing.T) {
		file := strings.NewReader("Buyer\nJane\n")

		_, err := parser.Parse(ctx, file, map[string]string{"customer_name": "Buyer"}, "")
		require.ErrorIs(t, err, domain.ErrImportFormat)
	})

	t.Run("no parsable rows", func(t *testing.T) {
		file := strings.NewReader("Reference,Buyer,Item Code,Qty,Postcode\n")

		_, err := parser.Parse(ctx, file, mapping, "")
		require.ErrorIs(t, err, domain.ErrImportFormat)
	})
}
