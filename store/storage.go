package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"interview/types"
)

var (
	ErrEmptyVector       = errors.New("empty query vector")
	ErrDimensionMismatch = errors.New("vector dimension does not match store")
)

type DBStorer interface {
	Search(context.Context, []float32, int) ([]types.RetrievalResult, error)
	ReplaceSource(context.Context, string, []types.Chunk) error
	CountBySource(context.Context, string) (int, error)
}

type PostgresStore struct {
	pool   *pgxpool.Pool
	dim    int
	logger *slog.Logger
}

// NewPostgresStore opens a bounded pool (pool_max_conns in connStr).
// The vector extension must exist before pooled connections register the
// pgvector codecs, so it is created on a bootstrap connection.
func NewPostgresStore(ctx context.Context, connStr string, dim int) (*PostgresStore, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dim)
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	if err := ensureExtension(ctx, config.ConnConfig.Copy()); err != nil {
		return nil, err
	}
	config.AfterConnect = pgxvec.RegisterTypes

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{
		pool:   pool,
		dim:    dim,
		logger: slog.Default(),
	}, nil
}

func ensureExtension(ctx context.Context, connConfig *pgx.ConnConfig) error {
	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}
	return nil
}

// Search returns the limit nearest rows by L2 distance, closest first.
func (p *PostgresStore) Search(ctx context.Context, queryVec []float32, limit int) ([]types.RetrievalResult, error) {
	if len(queryVec) == 0 {
		return nil, ErrEmptyVector
	}
	if len(queryVec) != p.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(queryVec), p.dim)
	}
	if limit <= 0 {
		return []types.RetrievalResult{}, nil
	}

	query := `
		SELECT id, text, source, page, embedding <-> $1 AS distance
		FROM pdf_embeddings
		ORDER BY embedding <-> $1, position
		LIMIT $2
	`
	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	results := make([]types.RetrievalResult, 0, limit)
	for rows.Next() {
		var r types.RetrievalResult
		if err := rows.Scan(&r.ID, &r.Text, &r.Source, &r.Page, &r.Distance); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}

	p.logger.Debug("vector search", "rows", len(results), "limit", limit)
	return results, nil
}

// ReplaceSource drops every row of source and inserts chunks in one transaction.
func (p *PostgresStore) ReplaceSource(ctx context.Context, source string, chunks []types.Chunk) error {
	for i := range chunks {
		if len(chunks[i].Embedding) != p.dim {
			return fmt.Errorf("%w: chunk %d has %d", ErrDimensionMismatch, i, len(chunks[i].Embedding))
		}
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			p.logger.Error("rollback failed", "error", err)
		}
	}()

	if _, err := tx.Exec(ctx, "DELETE FROM pdf_embeddings WHERE source = $1", source); err != nil {
		return fmt.Errorf("delete source rows: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(`
			INSERT INTO pdf_embeddings (id, text, source, page, position, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			c.ID, c.Text, c.Source, c.Page, c.Position, pgvector.NewVector(c.Embedding),
		)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (p *PostgresStore) CountBySource(ctx context.Context, source string) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, "SELECT count(*) FROM pdf_embeddings WHERE source = $1", source).Scan(&n)
	return n, err
}

func (p *PostgresStore) createTables(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS pdf_embeddings (
		id UUID PRIMARY KEY,
		text TEXT NOT NULL,
		source TEXT NOT NULL,
		page INT NOT NULL,
		position INT NOT NULL DEFAULT 0,
		embedding vector(%d) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pdf_embeddings_source ON pdf_embeddings(source);
	`, p.dim)
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createTables(ctx)
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the connection pool.
func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.logger.Info("Postgres connection pool is closed")
	}
	return nil
}
