package vecindex

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"
)

// PostgresIndex stores embeddings in pgvector, one table per collection so
// each embedding space keeps its own dimensionality.
type PostgresIndex struct {
	pool   *pgxpool.Pool
	tables map[string]string
}

// NewPostgresIndex connects and ensures a vector table per collection with
// the given dimensions.
func NewPostgresIndex(ctx context.Context, databaseURL string, dims map[string]int) (*PostgresIndex, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	idx := &PostgresIndex{pool: pool, tables: make(map[string]string, len(dims))}
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector;`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("enable pgvector: %w", err)
	}

	for collection, dim := range dims {
		table, err := tableName(collection)
		if err != nil {
			pool.Close()
			return nil, err
		}
		stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			item_name TEXT NOT NULL DEFAULT ''
		);`, table, dim)
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("init collection %s: %w", collection, err)
		}
		idx.tables[collection] = table
	}

	return idx, nil
}

func (idx *PostgresIndex) Upsert(ctx context.Context, collection, id string, vector []float32, meta Meta) error {
	table, err := idx.table(collection)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(`INSERT INTO %s (id, embedding, category, item_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			category = EXCLUDED.category,
			item_name = EXCLUDED.item_name`, table)
	if _, err := idx.pool.Exec(ctx, stmt, id, pgvector.NewVector(vector), meta.Category, meta.Name); err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, id, err)
	}
	return nil
}

func (idx *PostgresIndex) Nearest(ctx context.Context, collection string, vector []float32, k int) ([]Entry, error) {
	table, err := idx.table(collection)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = 1
	}

	stmt := fmt.Sprintf(`SELECT id, 1 - (embedding <=> $1) AS score, category, item_name
		FROM %s ORDER BY embedding <=> $1 LIMIT $2`, table)
	rows, err := idx.pool.Query(ctx, stmt, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Score, &e.Category, &e.Name); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", collection, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", collection, err)
	}
	return out, nil
}

func (idx *PostgresIndex) Close() error {
	idx.pool.Close()
	return nil
}

func (idx *PostgresIndex) table(collection string) (string, error) {
	table, ok := idx.tables[collection]
	if !ok {
		return "", fmt.Errorf("unknown collection %q", collection)
	}
	return table, nil
}

// tableName derives a safe SQL identifier from a collection name.
func tableName(collection string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(collection))
	if name == "" {
		return "", fmt.Errorf("empty collection name")
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return "", fmt.Errorf("invalid collection name %q", collection)
		}
	}
	return "vec_" + name, nil
}
