package store

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sjsage522/propertyscraper/internal/record"
	"sjsage522/propertyscraper/logger"
	apperrors "sjsage522/propertyscraper/pkg/errors"
)

const listingsTable = "property_listings"

const createListingsTable = `CREATE TABLE IF NOT EXISTS ` + listingsTable + ` (
	url              TEXT PRIMARY KEY,
	listing_id       BIGINT,
	title            TEXT NOT NULL,
	price            TEXT NOT NULL,
	location         TEXT NOT NULL,
	bedrooms         TEXT NOT NULL,
	bathrooms        TEXT NOT NULL,
	area             TEXT NOT NULL,
	property_type    TEXT NOT NULL,
	transaction_type TEXT NOT NULL,
	images           TEXT[],
	scraped_at       TIMESTAMPTZ NOT NULL
)`

const insertListing = `INSERT INTO ` + listingsTable + `
	(url, listing_id, title, price, location, bedrooms, bathrooms, area,
	 property_type, transaction_type, images, scraped_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	ON CONFLICT (url) DO NOTHING`

// DefaultBatchSize bounds the number of inserts sent per batch
const DefaultBatchSize = 200

// PostgresSink mirrors persisted listings into a Postgres table
type PostgresSink struct {
	pool      *pgxpool.Pool
	batchSize int
}

// NewPostgresSink connects to dsn and makes sure the listings table exists
func NewPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, apperrors.NewConfiguration("invalid postgres_dsn", err)
	}
	if cfg.MaxConns <= 0 || cfg.MaxConns > 4 {
		cfg.MaxConns = 4
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, apperrors.NewPersistence("postgres", "failed to connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.NewPersistence("postgres", "ping failed", err)
	}

	sink := &PostgresSink{pool: pool, batchSize: DefaultBatchSize}
	if err := sink.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return sink, nil
}

func (p *PostgresSink) ensureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, createListingsTable); err != nil {
		return apperrors.NewPersistence("postgres", "failed to create "+listingsTable, err)
	}
	return nil
}

// SaveListings inserts listings, skipping URLs already present. It returns
// the number of rows inserted.
func (p *PostgresSink) SaveListings(ctx context.Context, listings []*record.Listing) (int, error) {
	total := 0
	for i := 0; i < len(listings); i += p.batchSize {
		j := min(i+p.batchSize, len(listings))

		b := &pgx.Batch{}
		count := 0
		for _, l := range listings[i:j] {
			if strings.TrimSpace(l.URL) == "" {
				continue
			}
			b.Queue(insertListing,
				l.URL, l.ID, l.Title, l.Price, l.Location, l.Bedrooms, l.Bathrooms, l.Area,
				l.PropertyType, l.TransactionType, l.Images, l.ScrapedAt,
			)
			count++
		}

		br := p.pool.SendBatch(ctx, b)
		for k := 0; k < count; k++ {
			tag, err := br.Exec()
			if err != nil {
				_ = br.Close()
				return total, apperrors.NewPersistence("postgres", "insert failed", err)
			}
			total += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return total, apperrors.NewPersistence("postgres", "batch close failed", err)
		}
	}

	logger.ForStore().Info().Int("inserted", total).Int("listings", len(listings)).Msg("saved listings to postgres")
	return total, nil
}

// Close releases the connection pool
func (p *PostgresSink) Close() {
	p.pool.Close()
}
