package store

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PGVectorStore is a SemanticStore over one Postgres table with a pgvector column.
// Metadata lives in a JSONB column of string values.
type PGVectorStore struct {
	db       *pgxpool.Pool
	table    string
	dims     int
	embedder domain.EmbeddingClient
}

// NewPGVectorStore creates the table if needed. table must be a plain identifier.
func NewPGVectorStore(ctx context.Context, db *pgxpool.Pool, table string, dims int, embedder domain.EmbeddingClient) (*PGVectorStore, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if dims <= 0 {
		return nil, fmt.Errorf("invalid embedding dimensions %d", dims)
	}
	s := &PGVectorStore{db: db, table: table, dims: dims, embedder: embedder}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PGVectorStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			metadata   JSONB NOT NULL DEFAULT '{}',
			embedding  vector(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.table, s.dims),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_metadata_idx ON %s USING GIN (metadata)`, s.table, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", s.table, err)
		}
	}
	return nil
}

func (s *PGVectorStore) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	v, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("embed: %w", err)
	}
	if len(v) != s.dims {
		return pgvector.Vector{}, fmt.Errorf("embedding has %d dimensions, table %s expects %d", len(v), s.table, s.dims)
	}
	return pgvector.NewVector(v), nil
}

func (s *PGVectorStore) Add(ctx context.Context, rec domain.Record) error {
	vec, err := s.embed(ctx, rec.Text)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, content, metadata, embedding)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding`, s.table),
		rec.ID, rec.Text, nonNilMetadata(rec.Metadata), vec,
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", rec.ID, err)
	}
	return nil
}

func nonNilMetadata(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

var filterOperators = map[domain.FilterOp]string{
	domain.OpEq:  "=",
	domain.OpGte: ">=",
	domain.OpLte: "<=",
}

// buildFilterSQL renders filter as a parameterized WHERE fragment starting at
// placeholder $next. Field names are bound as parameters, never interpolated.
func buildFilterSQL(filter domain.Filter, next int) (string, []any, error) {
	if len(filter) == 0 {
		return "TRUE", nil, nil
	}
	conds := make([]string, 0, len(filter))
	args := make([]any, 0, len(filter)*2)
	for _, c := range filter {
		op, ok := filterOperators[c.Op]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter operator %q", c.Op)
		}
		field := fmt.Sprintf("(metadata->>$%d::text)", next)
		args = append(args, c.Field)
		next++

		if c.Numeric {
			n, err := strconv.ParseInt(c.Value, 10, 64)
			if err != nil {
				return "", nil, fmt.Errorf("numeric filter on %s: %w", c.Field, err)
			}
			conds = append(conds, fmt.Sprintf("%s::bigint %s $%d", field, op, next))
			args = append(args, n)
		} else {
			conds = append(conds, fmt.Sprintf(`%s COLLATE "C" %s $%d`, field, op, next))
			args = append(args, c.Value)
		}
		next++
	}
	return strings.Join(conds, " AND "), args, nil
}

func (s *PGVectorStore) Query(ctx context.Context, text string, k int, filter domain.Filter) ([]domain.Record, error) {
	if k <= 0 {
		return nil, nil
	}
	vec, err := s.embed(ctx, text)
	if err != nil {
		return nil, err
	}

	args := []any{vec}
	where, filterArgs, err := buildFilterSQL(filter, 2)
	if err != nil {
		return nil, err
	}
	args = append(args, filterArgs...)
	limitParam := len(args) + 1
	args = append(args, k)

	query := fmt.Sprintf(
		`SELECT id, content, metadata, embedding <=> $1 AS distance
		 FROM %s
		 WHERE embedding IS NOT NULL AND %s
		 ORDER BY distance ASC
		 LIMIT $%d`,
		s.table, where, limitParam,
	)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var r domain.Record
		if err := rows.Scan(&r.ID, &r.Text, &r.Metadata, &r.Distance); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PGVectorStore) scanRecords(rows pgx.Rows) ([]domain.Record, error) {
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var r domain.Record
		if err := rows.Scan(&r.ID, &r.Text, &r.Metadata); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PGVectorStore) Get(ctx context.Context, ids []string) ([]domain.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(ctx,
		fmt.Sprintf(`SELECT id, content, metadata FROM %s WHERE id = ANY($1)`, s.table),
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("get from %s: %w", s.table, err)
	}
	return s.scanRecords(rows)
}

func (s *PGVectorStore) Find(ctx context.Context, filter domain.Filter) ([]domain.Record, error) {
	where, args, err := buildFilterSQL(filter, 1)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx,
		fmt.Sprintf(`SELECT id, content, metadata FROM %s WHERE %s`, s.table, where),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	return s.scanRecords(rows)
}

func (s *PGVectorStore) Update(ctx context.Context, id string, metadata map[string]string) error {
	tag, err := s.db.Exec(ctx,
		fmt.Sprintf(`UPDATE %s SET metadata = $2 WHERE id = $1`, s.table),
		id, nonNilMetadata(metadata),
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGVectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, s.table),
		ids,
	)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", s.table, err)
	}
	return nil
}

func (s *PGVectorStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
