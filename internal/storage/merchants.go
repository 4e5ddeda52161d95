package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/common"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/service"
)

const (
	merchantCacheTTL    = 5 * time.Minute
	warmMerchantLimit   = 500
	fuzzyCandidateLimit = 10
	// Names shorter than this never take part in substring matching.
	minSubstringName = 3
)

const merchantColumns = `m.raw_key, m.normalized_name, m.canonical_name, m.category, m.subcategory,
	m.confidence, m.usage_count, m.source, m.created_at, m.last_seen,
	(SELECT group_concat(k.keyword, ' ') FROM merchant_keywords k WHERE k.raw_key = m.raw_key)`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMerchant(row rowScanner) (*model.MerchantRecord, error) {
	var (
		record   model.MerchantRecord
		keywords sql.NullString
	)
	err := row.Scan(
		&record.RawKey,
		&record.NormalizedName,
		&record.CanonicalName,
		&record.Category,
		&record.Subcategory,
		&record.Confidence,
		&record.UsageCount,
		&record.Source,
		&record.CreatedAt,
		&record.LastSeen,
		&keywords,
	)
	if err != nil {
		return nil, err
	}
	if keywords.Valid {
		record.Keywords = strings.Fields(keywords.String)
	}
	return &record, nil
}

// FindExact retrieves a merchant by its lowercased key.
func (s *SQLiteStorage) FindExact(ctx context.Context, key string) (*model.MerchantRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}
	key = merchantKey(key)

	if record := s.getCachedMerchant(key); record != nil {
		return record, nil
	}

	record, err := scanMerchant(s.db.QueryRowContext(ctx,
		`SELECT `+merchantColumns+` FROM merchants m WHERE m.raw_key = ?`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}

	s.cacheMerchant(record)
	return record, nil
}

// FindFuzzy returns merchants sharing a keyword with the query or whose
// normalized name is a substring of the key (or the reverse). Results are
// ordered by usage_count descending, then key.
func (s *SQLiteStorage) FindFuzzy(ctx context.Context, key string, keywords []string) ([]model.MerchantRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(key, "key"); err != nil {
		return nil, err
	}
	key = merchantKey(key)
	keywords = uniqueKeywords(keywords)

	var (
		clauses []string
		args    []any
	)
	if len(keywords) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keywords)), ",")
		clauses = append(clauses,
			`m.raw_key IN (SELECT raw_key FROM merchant_keywords WHERE keyword IN (`+placeholders+`))`)
		for _, k := range keywords {
			args = append(args, k)
		}
	}
	clauses = append(clauses,
		`(length(m.normalized_name) >= ? AND (instr(?, m.normalized_name) > 0 OR instr(m.normalized_name, ?) > 0))`)
	args = append(args, minSubstringName, key, key, fuzzyCandidateLimit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+merchantColumns+`
		FROM merchants m
		WHERE `+strings.Join(clauses, " OR ")+`
		ORDER BY m.usage_count DESC, m.raw_key ASC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fuzzy merchants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectMerchants(rows)
}

func collectMerchants(rows *sql.Rows) ([]model.MerchantRecord, error) {
	var records []model.MerchantRecord
	for rows.Next() {
		record, err := scanMerchant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan merchant: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// Touch increments a merchant's usage count and refreshes last_seen.
func (s *SQLiteStorage) Touch(ctx context.Context, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}
	key = merchantKey(key)

	result, err := s.db.ExecContext(ctx, `
		UPDATE merchants SET usage_count = usage_count + 1, last_seen = ?
		WHERE raw_key = ?
	`, time.Now().UTC(), key)
	if err != nil {
		return fmt.Errorf("failed to touch merchant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return common.ErrNotFound
	}

	s.evictMerchant(key)
	return nil
}

// UpsertLearned inserts a learned merchant, or bumps usage on the existing
// record when the key is already known. The first writer's category wins.
func (s *SQLiteStorage) UpsertLearned(ctx context.Context, record *model.MerchantRecord) error {
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

	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO merchants (raw_key, normalized_name, canonical_name, category, subcategory,
			confidence, usage_count, source, created_at, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(raw_key) DO UPDATE SET
			usage_count = merchants.usage_count + 1,
			last_seen = excluded.last_seen
	`, rec.RawKey, rec.NormalizedName, rec.CanonicalName, rec.Category, rec.Subcategory,
		rec.Confidence, rec.UsageCount, rec.Source, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert merchant: %w", err)
	}

	if err := insertKeywords(ctx, tx, rec.RawKey, rec.Keywords); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merchant: %w", err)
	}

	s.evictMerchant(rec.RawKey)
	return nil
}

// SaveMerchant creates or fully replaces a merchant record.
func (s *SQLiteStorage) SaveMerchant(ctx context.Context, record *model.MerchantRecord) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMerchant(record); err != nil {
		return err
	}
	rec := *record
	prepareMerchant(&rec)

	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.LastSeen.IsZero() {
		rec.LastSeen = now
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO merchants (raw_key, normalized_name, canonical_name, category, subcategory,
			confidence, usage_count, source, created_at, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(raw_key) DO UPDATE SET
			normalized_name = excluded.normalized_name,
			canonical_name = excluded.canonical_name,
			category = excluded.category,
			subcategory = excluded.subcategory,
			confidence = excluded.confidence,
			usage_count = excluded.usage_count,
			source = excluded.source,
			last_seen = excluded.last_seen
	`, rec.RawKey, rec.NormalizedName, rec.CanonicalName, rec.Category, rec.Subcategory,
		rec.Confidence, rec.UsageCount, rec.Source, rec.CreatedAt, rec.LastSeen)
	if err != nil {
		return fmt.Errorf("failed to save merchant: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM merchant_keywords WHERE raw_key = ?`, rec.RawKey); err != nil {
		return fmt.Errorf("failed to clear keywords: %w", err)
	}
	if err := insertKeywords(ctx, tx, rec.RawKey, rec.Keywords); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merchant: %w", err)
	}

	s.evictMerchant(rec.RawKey)
	return nil
}

func insertKeywords(ctx context.Context, q queryable, key string, keywords []string) error {
	for _, k := range keywords {
		if _, err := q.ExecContext(ctx, `
			INSERT OR IGNORE INTO merchant_keywords (raw_key, keyword) VALUES (?, ?)
		`, key, k); err != nil {
			return fmt.Errorf("failed to save keyword %q: %w", k, err)
		}
	}
	return nil
}

// ListMerchants returns merchants matching filter, most used first.
func (s *SQLiteStorage) ListMerchants(ctx context.Context, filter service.MerchantFilter) ([]model.MerchantRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		where = append(where, "m.category = ?")
		args = append(args, filter.Category)
	}
	if filter.Source != "" {
		where = append(where, "m.source = ?")
		args = append(args, filter.Source)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		where = append(where, "(m.raw_key LIKE ? OR m.canonical_name LIKE ?)")
		pattern := "%" + strings.ToLower(q) + "%"
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + merchantColumns + ` FROM merchants m`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY m.usage_count DESC, m.raw_key ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query merchants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectMerchants(rows)
}

// DeleteMerchant removes a merchant and its keywords.
func (s *SQLiteStorage) DeleteMerchant(ctx context.Context, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}
	key = merchantKey(key)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM merchant_keywords WHERE raw_key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete keywords: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM merchants WHERE raw_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete merchant: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return common.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	s.evictMerchant(key)
	return nil
}

// getCachedMerchant returns a copy of a cached merchant, or nil.
func (s *SQLiteStorage) getCachedMerchant(key string) *model.MerchantRecord {
	s.cacheMutex.RLock()

	if time.Now().After(s.cacheExpiry) {
		// Upgrade to write lock to clear the expired cache.
		s.cacheMutex.RUnlock()
		s.cacheMutex.Lock()
		defer s.cacheMutex.Unlock()

		if time.Now().After(s.cacheExpiry) {
			s.merchantCache = make(map[string]*model.MerchantRecord)
		}
		return nil
	}

	record := s.merchantCache[key]
	s.cacheMutex.RUnlock()
	if record == nil {
		return nil
	}
	clone := *record
	return &clone
}

// cacheMerchant adds a merchant to the cache.
func (s *SQLiteStorage) cacheMerchant(record *model.MerchantRecord) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	if len(s.merchantCache) == 0 {
		s.cacheExpiry = time.Now().Add(merchantCacheTTL)
	}
	clone := *record
	s.merchantCache[record.RawKey] = &clone
}

func (s *SQLiteStorage) evictMerchant(key string) {
	s.cacheMutex.Lock()
	delete(s.merchantCache, key)
	s.cacheMutex.Unlock()
}

// WarmMerchantCache loads the most used merchants into the cache.
func (s *SQLiteStorage) WarmMerchantCache(ctx context.Context, limit int) error {
	merchants, err := s.ListMerchants(ctx, service.MerchantFilter{Limit: limit})
	if err != nil {
		return err
	}

	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	s.merchantCache = make(map[string]*model.MerchantRecord, len(merchants))
	for i := range merchants {
		s.merchantCache[merchants[i].RawKey] = &merchants[i]
	}

	s.cacheExpiry = time.Now().Add(merchantCacheTTL)
	return nil
}
