package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/wildhold/server/internal/config"
	"github.com/wildhold/server/internal/world"
)

// PostgresStore is the production backend on a pgx connection pool.
type PostgresStore struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

// OpenPostgres connects, pings and migrates.
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := RunMigrations(ctx, db, "postgres"); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{Pool: pool, log: log}, nil
}

func (s *PostgresStore) Close() error {
	s.Pool.Close()
	return nil
}

func (s *PostgresStore) LoadPlayerByToken(ctx context.Context, token string, invSize int) (*world.PlayerState, error) {
	var (
		id   string
		blob []byte
	)
	err := s.Pool.QueryRow(ctx,
		`SELECT id, data FROM players WHERE token_hash = $1`, HashToken(token),
	).Scan(&id, &blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	return DecodePlayer(id, token, invSize, blob)
}

func (s *PostgresStore) LoadChunks(ctx context.Context) ([]*world.Chunk, error) {
	rows, err := s.Pool.Query(ctx, `SELECT data FROM chunks ORDER BY cy, cx`)
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	defer rows.Close()

	var out []*world.Chunk
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		ch, err := DecodeChunk(blob)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (s *PostgresStore) LoadSettlements(ctx context.Context) ([]*world.Settlement, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, level, data FROM settlements ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load settlements: %w", err)
	}
	defer rows.Close()

	var out []*world.Settlement
	for rows.Next() {
		var (
			id    string
			level int
			blob  []byte
		)
		if err := rows.Scan(&id, &level, &blob); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		st, err := decodeSettlement(id, level, blob)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveBatch(ctx context.Context, b Batch) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("save begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range b.Players {
		blob, err := EncodePlayer(p)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO players (id, token_hash, name, data, updated_at)
			 VALUES ($1, $2, $3, $4, now())
			 ON CONFLICT (id) DO UPDATE SET
			   token_hash = EXCLUDED.token_hash, name = EXCLUDED.name,
			   data = EXCLUDED.data, updated_at = now()`,
			p.ID, HashToken(p.Token), p.Name, blob,
		); err != nil {
			return fmt.Errorf("save player %s: %w", p.ID, err)
		}
	}
	for _, ch := range b.Chunks {
		blob, err := EncodeChunk(ch)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO chunks (cx, cy, data, updated_at) VALUES ($1, $2, $3, now())
			 ON CONFLICT (cx, cy) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
			ch.Coord.X, ch.Coord.Y, blob,
		); err != nil {
			return fmt.Errorf("save chunk %s: %w", ch.Coord, err)
		}
	}
	for _, st := range b.Settlements {
		blob, err := encodeSettlement(st)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO settlements (id, level, data, updated_at) VALUES ($1, $2, $3, now())
			 ON CONFLICT (id) DO UPDATE SET level = EXCLUDED.level, data = EXCLUDED.data, updated_at = now()`,
			st.ID, st.Level, blob,
		); err != nil {
			return fmt.Errorf("save settlement %s: %w", st.ID, err)
		}
	}
	return tx.Commit(ctx)
}
