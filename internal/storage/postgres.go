package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/service"
)

// Pool is the subset of *pgxpool.Pool used by PostgresStorage.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

var _ service.KnowledgeStore = (*PostgresStorage)(nil)

// PostgresStorage implements service.KnowledgeStore on Postgres, for
// deployments where several engine instances share one knowledge base.
type PostgresStorage struct {
	pool Pool
}

// NewPostgresStorage connects to url and returns a store backed by a pgx pool.
func NewPostgresStorage(ctx context.Context, url string) (*PostgresStorage, error) {
	if err := validateString(url, "url"); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return NewPostgresStorageWithPool(pool), nil
}

// NewPostgresStorageWithPool wraps an existing pool.
func NewPostgresStorageWithPool(pool Pool) *PostgresStorage {
	return &PostgresStorage{pool: pool}
}

// Close releases the pool.
func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

const pgSchema = `
	CREATE TABLE IF NOT EXISTS merchants (
		raw_key         TEXT PRIMARY KEY,
		normalized_name TEXT NOT NULL,
		canonical_name  TEXT NOT NULL,
		category        TEXT NOT NULL,
		subcategory     TEXT NOT NULL DEFAULT '',
		confidence      DOUBLE PRECISION NOT NULL DEFAULT 0,
		usage_count     INTEGER NOT NULL DEFAULT 0,
		source          TEXT NOT NULL DEFAULT 'manual',
		keywords        TEXT[] NOT NULL DEFAULT '{}',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		last_seen       TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_merchants_category ON merchants (category);
	CREATE INDEX IF NOT EXISTS idx_merchants_keywords ON merchants USING GIN (keywords);
	CREATE INDEX IF NOT EXISTS idx_merchants_usage ON merchants (usage_count DESC, raw_key);
`

// Migrate creates the merchants table if it doesn't exist.
func (p *PostgresStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("failed to migrate postgres schema: %w", err)
	}
	return nil
}

const pgMerchantColumns = `raw_key, normalized_name, canonical_name, category, subcategory,
	confidence, usage_count, source, created_at, last_seen, keywords`

func scanPGMerchant(row pgx.Row) (*model.MerchantRecord, error) {
	var (
		record   model.MerchantRecord
		category string
		source   string
	)
	err := row.Scan(
		&record.RawKey,
		&record.NormalizedName,
		&record.CanonicalName,
		&category,
		&record.Subcategory,
		&record.Confidence,
		&record.UsageCount,
		&source,
		&record.CreatedAt,
		&record.LastSeen,
		&record.Keywords,
	)
	if err != nil {
		return nil, err
	}
	record.Category = model.CanonicalCategory(category)
	record.Source = model.MerchantSource(source)
	return &record, nil
}

// FindExact retrieves a merchant by its lowercased key.
func (p *PostgresStorage) FindExact(ctx context.Context, key string) (*model.MerchantRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}

	record, err := scanPGMerchant(p.pool.QueryRow(ctx,
		`SELECT `+pgMerchantColumns+` FROM merchants WHERE raw_key = $1`, merchantKey(key)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}
	return record, nil
}

// FindFuzzy returns keyword-overlap or substring candidates, most used first.
func (p *PostgresStorage) FindFuzzy(ctx context.Context, key string, keywords []string) ([]model.MerchantRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+pgMerchantColumns+`
		FROM merchants
		WHERE keywords && $1::text[]
		   OR (length(normalized_name) >= $2
		       AND (strpos($3, normalized_name) > 0 OR strpos(normalized_name, $3) > 0))
		ORDER BY usage_count DESC, raw_key ASC
		LIMIT $4
	`, uniqueKeywords(keywords), minSubstringName, merchantKey(key), fuzzyCandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fuzzy merchants: %w", err)
	}
	return collectPGMerchants(rows)
}

func collectPGMerchants(rows pgx.Rows) ([]model.MerchantRecord, error) {
	defer rows.Close()

	var records []model.MerchantRecord
	for rows.Next() {
		record, err := scanPGMerchant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan merchant: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// Touch increments usage_count and refreshes last_seen.
func (p *PostgresStorage) Touch(ctx context.Context, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx,
		`UPDATE merchants SET usage_count = usage_count + 1, last_seen = now() WHERE raw_key = $1`,
		merchantKey(key))
	if err != nil {
		return fmt.Errorf("failed to touch merchant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// UpsertLearned inserts a learned merchant or increments the existing one in a
// single statement, so concurrent learners converge on one row.
func (p *PostgresStorage) UpsertLearned(ctx context.Context, record *model.MerchantRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMerchant(record); err != nil {
		return err
	}
	rec := *record
	prepareMerchant(&rec)
	if rec.UsageCount <= 0 {
		rec.UsageCount = 1
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO merchants (raw_key, normalized_name, canonical_name, category, subcategory,
			confidence, usage_count, source, keywords, created_at, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		ON CONFLICT (raw_key) DO UPDATE SET
			usage_count = merchants.usage_count + 1,
			last_seen = now(),
			keywords = ARRAY(SELECT DISTINCT unnest(merchants.keywords || EXCLUDED.keywords))
	`, rec.RawKey, rec.NormalizedName, rec.CanonicalName, string(rec.Category), rec.Subcategory,
		rec.Confidence, rec.UsageCount, string(rec.Source), rec.Keywords)
	if err != nil {
		return fmt.Errorf("failed to upsert merchant: %w", err)
	}
	return nil
}

// SaveMerchant creates or fully replaces a merchant record.
func (p *PostgresStorage) SaveMerchant(ctx context.Context, record *model.MerchantRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMerchant(record); err != nil {
		return err
	}
	rec := *record
	prepareMerchant(&rec)
	if rec.LastSeen.IsZero() {
		rec.LastSeen = time.Now().UTC()
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO merchants (raw_key, normalized_name, canonical_name, category, subcategory,
			confidence, usage_count, source, keywords, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (raw_key) DO UPDATE SET
			normalized_name = EXCLUDED.normalized_name,
			canonical_name = EXCLUDED.canonical_name,
			category = EXCLUDED.category,
			subcategory = EXCLUDED.subcategory,
			confidence = EXCLUDED.confidence,
			usage_count = EXCLUDED.usage_count,
			source = EXCLUDED.source,
			keywords = EXCLUDED.keywords,
			last_seen = EXCLUDED.last_seen
	`, rec.RawKey, rec.NormalizedName, rec.CanonicalName, string(rec.Category), rec.Subcategory,
		rec.Confidence, rec.UsageCount, string(rec.Source), rec.Keywords, rec.LastSeen)
	if err != nil {
		return fmt.Errorf("failed to save merchant: %w", err)
	}
	return nil
}

// ListMerchants returns merchants matching filter, most used first.
func (p *PostgresStorage) ListMerchants(ctx context.Context, filter service.MerchantFilter) ([]model.MerchantRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Category != "" {
		where = append(where, "category = "+arg(string(filter.Category)))
	}
	if filter.Source != "" {
		where = append(where, "source = "+arg(string(filter.Source)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		n := arg("%" + strings.ToLower(q) + "%")
		where = append(where, "(raw_key LIKE "+n+" OR lower(canonical_name) LIKE "+n+")")
	}

	query := `SELECT ` + pgMerchantColumns + ` FROM merchants`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY usage_count DESC, raw_key ASC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchants: %w", err)
	}
	return collectPGMerchants(rows)
}

// DeleteMerchant removes a merchant.
func (p *PostgresStorage) DeleteMerchant(ctx context.Context, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	tag, err := p.pool.Exec(ctx, `DELETE FROM merchants WHERE raw_key = $1`, merchantKey(key))
	if err != nil {
		return fmt.Errorf("failed to delete merchant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
