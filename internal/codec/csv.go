package codec

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"orderpick/internal/domain"
)

// Backup column layout. Fixed: both export and import depend on this exact
// order. String columns are quoted on export, numeric columns are not.
var csvHeader = []string{
	"Order Number", "Customer Name", "SKU", "Quantity", "Location",
	"Buyer Postcode", "Image URL", "Item Name", "Remaining Stock",
	"Order Value", "File Date", "File Name", "Archived At", "Completed",
	"Channel Type", "Channel", "Packaging Type",
}

const csvColumns = 17

// WriteCSV serializes every record into the backup format. Absent optional
// fields render as empty string.
func WriteCSV(w io.Writer, records []domain.ArchivedOrder) error {
	bw := bufio.NewWriter(w)

	cells := make([]string, 0, csvColumns)
	for _, h := range csvHeader {
		cells = append(cells, quote(h))
	}
	if _, err := bw.WriteString(strings.Join(cells, ",") + "\r\n"); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			quote(rec.OrderNumber),
			quote(rec.CustomerName),
			quote(rec.SKU),
			strconv.Itoa(rec.Quantity),
			quote(rec.Location),
			quote(rec.BuyerPostcode),
			quote(rec.ImageURL),
			quote(rec.ItemName),
			optInt(rec.RemainingStock),
			optFloat(rec.OrderValue),
			quote(rec.FileDate),
			quote(rec.FileName),
			quote(rec.ArchivedAt.UTC().Format(time.RFC3339)),
			quote(yesNo(rec.Completed)),
			quote(rec.ChannelType),
			quote(rec.Channel),
			quote(rec.PackagingType),
		}
		if _, err := bw.WriteString(strings.Join(row, ",") + "\r\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadCSV parses the backup format back into transient orders. The header
// row is mandatory; rows with fewer fields than the header are skipped, not
// errors. Unparsable numerics degrade to fallbacks: quantity to 1, remaining
// stock and order value to absent. Returns ErrImportFormat when the header
// is missing or no row parses.
func ReadCSV(r io.Reader) ([]domain.Order, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing header row", domain.ErrImportFormat)
	}
	if len(header) < csvColumns || !strings.EqualFold(strings.TrimSpace(header[0]), csvHeader[0]) {
		return nil, fmt.Errorf("%w: unrecognized header row", domain.ErrImportFormat)
	}

	var orders []domain.Order
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrImportFormat, err)
		}
		if len(row) < csvColumns {
			continue
		}
		orders = append(orders, domain.Order{
			OrderNumber:    row[0],
			CustomerName:   row[1],
			SKU:            row[2],
			Quantity:       intOr(row[3], 1),
			Location:       row[4],
			BuyerPostcode:  row[5],
			ImageURL:       row[6],
			ItemName:       row[7],
			RemainingStock: intPtr(row[8]),
			OrderValue:     floatPtr(row[9]),
			FileDate:       row[10],
			// File Name (11) and Archived At (12) are restamped by the
			// archiver on import.
			Completed:     row[13] == "Yes",
			ChannelType:   row[14],
			Channel:       row[15],
			PackagingType: row[16],
		})
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: no parsable rows", domain.ErrImportFormat)
	}
	return orders, nil
}

// ImportFileName derives the synthetic batch label for an imported backup,
// so re-importing the same export dedups against the previous import rather
// than against the original batches.
func ImportFileName(original string) string {
	return "Imported-" + original
}

// ExportFileName is the download name convention for a backup taken now.
func ExportFileName(now time.Time) string {
	return "orderpick-archive-" + now.UTC().Format("2006-01-02") + ".csv"
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func optFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func intOr(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func intPtr(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func floatPtr(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}
