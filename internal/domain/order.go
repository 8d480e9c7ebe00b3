package domain

import (
	"strings"
	"time"
	"unicode"
)

// Order is the transient shape used by the live picking session and the
// remote order sources. Optional numeric fields are pointers so that an
// absent value survives a codec round-trip without inventing a zero.
type Order struct {
	OrderNumber    string   `json:"order_number"`
	CustomerName   string   `json:"customer_name"`
	SKU            string   `json:"sku"`
	Quantity       int      `json:"quantity"`
	Location       string   `json:"location"`
	BuyerPostcode  string   `json:"buyer_postcode,omitempty"`
	ImageURL       string   `json:"image_url,omitempty"`
	ItemName       string   `json:"item_name,omitempty"`
	RemainingStock *int     `json:"remaining_stock,omitempty"`
	OrderValue     *float64 `json:"order_value,omitempty"`
	FileDate       string   `json:"file_date,omitempty"`
	ChannelType    string   `json:"channel_type,omitempty"`
	Channel        string   `json:"channel,omitempty"`
	PackagingType  string   `json:"packaging_type,omitempty"`
	Completed      bool     `json:"completed"`

	SelroOrderID string `json:"selro_order_id,omitempty"`
	SelroItemID  string `json:"selro_item_id,omitempty"`
	VeeqoOrderID string `json:"veeqo_order_id,omitempty"`
	VeeqoItemID  string `json:"veeqo_item_id,omitempty"`
}

// ArchivedOrder is the durable shape owned by the archive store. FileName
// labels the ingestion batch, ArchivedAt is stamped at write time and never
// updated afterwards, even when the same composite key is re-archived.
type ArchivedOrder struct {
	Order

	FileName   string    `json:"file_name"`
	ArchivedAt time.Time `json:"archived_at"`
}

// ArchiveKey is the composite identity of one archived record. Writing the
// same key twice overwrites rather than appends.
type ArchiveKey struct {
	OrderNumber string
	SKU         string
	FileName    string
}

func (o ArchivedOrder) Key() ArchiveKey {
	return ArchiveKey{OrderNumber: o.OrderNumber, SKU: o.SKU, FileName: o.FileName}
}

// ArchiveStats is derived from a full scan; nothing here is persisted
// separately.
type ArchiveStats struct {
	TotalOrders int            `json:"total_orders"`
	ByChannel   map[string]int `json:"by_channel"`
	ByDate      map[string]int `json:"by_date"`
}

// BatchInfo describes one ingestion batch for operator visibility.
type BatchInfo struct {
	FileName   string    `json:"file_name"`
	Orders     int       `json:"orders"`
	NewestScan time.Time `json:"newest_archived_at"`
}

// SearchResult is what the query engine hands back. Orders keep archive
// insertion order within the matched field.
type SearchResult struct {
	FoundInArchive bool            `json:"found_in_archive"`
	Orders         []ArchivedOrder `json:"orders"`
}

// SearchField enumerates the identifier fields the query engine consults,
// in priority order.
type SearchField int

const (
	FieldOrderNumber SearchField = iota
	FieldCustomerName
	FieldSKU
	FieldPostcode
)

func (f SearchField) String() string {
	switch f {
	case FieldOrderNumber:
		return "order_number"
	case FieldCustomerName:
		return "customer_name"
	case FieldSKU:
		return "sku"
	case FieldPostcode:
		return "buyer_postcode"
	}
	return "unknown"
}

// NormalizePostcode strips all whitespace and uppercases, so "AB1 2CD" and
// "ab12cd" compare equal. Applied symmetrically to queries and stored
// values.
func NormalizePostcode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
