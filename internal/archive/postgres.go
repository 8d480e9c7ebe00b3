package archive

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"orderpick/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const selectCols = `order_number, customer_name, sku, quantity, location, buyer_postcode,
	image_url, item_name, remaining_stock, order_value, file_date, channel_type, channel,
	packaging_type, completed, selro_order_id, selro_item_id, veeqo_order_id, veeqo_item_id,
	file_name, archived_at`

// Postgres is the durable archive store. Write serialization is delegated to
// Postgres itself: every upsert and delete is a single statement, so there is
// no store-level locking and no read-after-write promise across goroutines
// beyond the statement boundary.
type Postgres struct {
	dsn    string
	pool   *pgxpool.Pool
	ready  atomic.Bool
	logger *zap.Logger
}

func NewPostgres(dsn string, logger *zap.Logger) *Postgres {
	return &Postgres{dsn: dsn, logger: logger}
}

// Init opens the pool and applies migrations. Idempotent; a failure leaves
// the store not ready and the rest of the app keeps running without it.
func (s *Postgres) Init(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}

	pool, err := pgxpool.New(ctx, s.dsn)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	if err := s.migrate(); err != nil {
		pool.Close()
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	s.pool = pool
	s.ready.Store(true)
	s.logger.Info("archive store ready")
	return nil
}

func (s *Postgres) migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, s.dsn)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *Postgres) Ready() bool { return s.ready.Load() }

func (s *Postgres) Put(ctx context.Context, records []domain.ArchivedOrder) (int, error) {
	if !s.ready.Load() {
		return 0, domain.ErrStorageUnavailable
	}

	// archived_at is deliberately absent from the update list: the stamp of
	// the first write survives re-archiving of the same composite key.
	// buyer_postcode_norm is computed here with domain.NormalizePostcode so
	// that SQL matching agrees with the in-memory store on Unicode whitespace.
	const q = `
		INSERT INTO archived_orders (order_number, customer_name, sku, quantity, location,
		  buyer_postcode, image_url, item_name, remaining_stock, order_value, file_date,
		  channel_type, channel, packaging_type, completed, selro_order_id, selro_item_id,
		  veeqo_order_id, veeqo_item_id, file_name, archived_at, buyer_postcode_norm)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		ON CONFLICT (order_number, sku, file_name) DO UPDATE SET
		  customer_name=EXCLUDED.customer_name,
		  quantity=EXCLUDED.quantity,
		  location=EXCLUDED.location,
		  buyer_postcode=EXCLUDED.buyer_postcode,
		  buyer_postcode_norm=EXCLUDED.buyer_postcode_norm,
		  image_url=EXCLUDED.image_url,
		  item_name=EXCLUDED.item_name,
		  remaining_stock=EXCLUDED.remaining_stock,
		  order_value=EXCLUDED.order_value,
		  file_date=EXCLUDED.file_date,
		  channel_type=EXCLUDED.channel_type,
		  channel=EXCLUDED.channel,
		  packaging_type=EXCLUDED.packaging_type,
		  completed=EXCLUDED.completed,
		  selro_order_id=EXCLUDED.selro_order_id,
		  selro_item_id=EXCLUDED.selro_item_id,
		  veeqo_order_id=EXCLUDED.veeqo_order_id,
		  veeqo_item_id=EXCLUDED.veeqo_item_id
	`

	written := 0
	for _, rec := range records {
		_, err := s.pool.Exec(ctx, q,
			rec.OrderNumber, rec.CustomerName, rec.SKU, rec.Quantity, rec.Location,
			rec.BuyerPostcode, rec.ImageURL, rec.ItemName, rec.RemainingStock, rec.OrderValue,
			rec.FileDate, rec.ChannelType, rec.Channel, rec.PackagingType, rec.Completed,
			rec.SelroOrderID, rec.SelroItemID, rec.VeeqoOrderID, rec.VeeqoItemID,
			rec.FileName, rec.ArchivedAt, domain.NormalizePostcode(rec.BuyerPostcode),
		)
		if err != nil {
			s.logger.Warn("archive write failed, skipping record",
				zap.String("order_number", rec.OrderNumber),
				zap.String("sku", rec.SKU),
				zap.String("file_name", rec.FileName),
				zap.Error(err),
			)
			continue
		}
		written++
	}
	return written, nil
}

func (s *Postgres) All(ctx context.Context) ([]domain.ArchivedOrder, error) {
	if !s.ready.Load() {
		return nil, domain.ErrStorageUnavailable
	}
	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT %s FROM archived_orders ORDER BY seq`, selectCols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *Postgres) MatchField(ctx context.Context, field domain.SearchField, term string) ([]domain.ArchivedOrder, error) {
	if !s.ready.Load() {
		return nil, domain.ErrStorageUnavailable
	}

	// POSITION instead of LIKE so that % and _ in scanned terms match
	// literally.
	var where string
	switch field {
	case domain.FieldOrderNumber:
		where = `POSITION($1 IN LOWER(order_number)) > 0`
	case domain.FieldCustomerName:
		where = `POSITION($1 IN LOWER(customer_name)) > 0`
	case domain.FieldSKU:
		where = `POSITION($1 IN LOWER(sku)) > 0`
	case domain.FieldPostcode:
		where = `POSITION($1 IN buyer_postcode_norm) > 0`
	default:
		return nil, fmt.Errorf("unknown search field %d", field)
	}

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM archived_orders WHERE %s ORDER BY seq`, selectCols, where), term)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	if !s.ready.Load() {
		return 0, domain.ErrStorageUnavailable
	}
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM archived_orders`).Scan(&n)
	return n, err
}

func (s *Postgres) Stats(ctx context.Context) (domain.ArchiveStats, error) {
	stats := domain.ArchiveStats{
		ByChannel: map[string]int{},
		ByDate:    map[string]int{},
	}
	if !s.ready.Load() {
		return stats, domain.ErrStorageUnavailable
	}

	rows, err := s.pool.Query(ctx, `SELECT channel, archived_at FROM archived_orders`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var channel string
		var archivedAt time.Time
		if err := rows.Scan(&channel, &archivedAt); err != nil {
			return stats, err
		}
		stats.TotalOrders++
		if channel != "" {
			stats.ByChannel[channel]++
		}
		stats.ByDate[archivedAt.UTC().Format("2006-01-02")]++
	}
	return stats, rows.Err()
}

func (s *Postgres) Batches(ctx context.Context) ([]domain.BatchInfo, error) {
	if !s.ready.Load() {
		return nil, domain.ErrStorageUnavailable
	}
	rows, err := s.pool.Query(ctx, `
		SELECT file_name, COUNT(*), MAX(archived_at)
		FROM archived_orders
		GROUP BY file_name
		ORDER BY MAX(archived_at) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []domain.BatchInfo
	for rows.Next() {
		var b domain.BatchInfo
		if err := rows.Scan(&b.FileName, &b.Orders, &b.NewestScan); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func (s *Postgres) KeysOlderThan(ctx context.Context, cutoff time.Time) ([]domain.ArchiveKey, error) {
	if !s.ready.Load() {
		return nil, domain.ErrStorageUnavailable
	}
	rows, err := s.pool.Query(ctx, `
		SELECT order_number, sku, file_name FROM archived_orders
		WHERE archived_at < $1 ORDER BY seq
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []domain.ArchiveKey
	for rows.Next() {
		var k domain.ArchiveKey
		if err := rows.Scan(&k.OrderNumber, &k.SKU, &k.FileName); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, key domain.ArchiveKey) error {
	if !s.ready.Load() {
		return domain.ErrStorageUnavailable
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM archived_orders WHERE order_number=$1 AND sku=$2 AND file_name=$3`,
		key.OrderNumber, key.SKU, key.FileName)
	return err
}

func (s *Postgres) Clear(ctx context.Context) error {
	if !s.ready.Load() {
		return domain.ErrStorageUnavailable
	}
	_, err := s.pool.Exec(ctx, `TRUNCATE archived_orders RESTART IDENTITY`)
	return err
}

func (s *Postgres) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

type pgRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows pgRows) ([]domain.ArchivedOrder, error) {
	var records []domain.ArchivedOrder
	for rows.Next() {
		var rec domain.ArchivedOrder
		if err := rows.Scan(
			&rec.OrderNumber, &rec.CustomerName, &rec.SKU, &rec.Quantity, &rec.Location,
			&rec.BuyerPostcode, &rec.ImageURL, &rec.ItemName, &rec.RemainingStock, &rec.OrderValue,
			&rec.FileDate, &rec.ChannelType, &rec.Channel, &rec.PackagingType, &rec.Completed,
			&rec.SelroOrderID, &rec.SelroItemID, &rec.VeeqoOrderID, &rec.VeeqoItemID,
			&rec.FileName, &rec.ArchivedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
