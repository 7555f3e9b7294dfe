package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/wildhold/server/internal/world"
)

// SQLiteStore is the single-file backend for development and small shards.
type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

// OpenSQLite opens (creating if needed) the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string, log *zap.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; WAL lets token lookups read while a checkpoint commits.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}
	if err := RunMigrations(ctx, db, "sqlite3"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadPlayerByToken(ctx context.Context, token string, invSize int) (*world.PlayerState, error) {
	var (
		id   string
		blob []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, data FROM players WHERE token_hash = ?`, HashToken(token),
	).Scan(&id, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load player: %w", err)
	}
	return DecodePlayer(id, token, invSize, blob)
}

func (s *SQLiteStore) LoadChunks(ctx context.Context) ([]*world.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM chunks ORDER BY cy, cx`)
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

func (s *SQLiteStore) LoadSettlements(ctx context.Context) ([]*world.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, level, data FROM settlements ORDER BY id`)
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

func (s *SQLiteStore) SaveBatch(ctx context.Context, b Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, p := range b.Players {
		blob, err := EncodePlayer(p)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO players (id, token_hash, name, data, updated_at) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			   token_hash = excluded.token_hash, name = excluded.name,
			   data = excluded.data, updated_at = excluded.updated_at`,
			p.ID, HashToken(p.Token), p.Name, string(blob), now,
		); err != nil {
			return fmt.Errorf("save player %s: %w", p.ID, err)
		}
	}
	for _, ch := range b.Chunks {
		blob, err := EncodeChunk(ch)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (cx, cy, data, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(cx, cy) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
			ch.Coord.X, ch.Coord.Y, blob, now,
		); err != nil {
			return fmt.Errorf("save chunk %s: %w", ch.Coord, err)
		}
	}
	for _, st := range b.Settlements {
		blob, err := encodeSettlement(st)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settlements (id, level, data, updated_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET level = excluded.level, data = excluded.data, updated_at = excluded.updated_at`,
			st.ID, st.Level, string(blob), now,
		); err != nil {
			return fmt.Errorf("save settlement %s: %w", st.ID, err)
		}
	}
	return tx.Commit()
}
