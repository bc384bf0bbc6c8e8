package storage

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLBackend stores the key space in a single kv table. Keys are hex encoded,
// which keeps byte order under a binary collation.
type SQLBackend struct {
	DB     *sqlx.DB
	driver string
	logger *zap.Logger
}

type kvRow struct {
	K string `db:"k"`
	V string `db:"v"`
}

// NewSQLBackend connects with driver "sqlite3" or "postgres" and creates the table.
func NewSQLBackend(ctx context.Context, driver, dsn string, logger *zap.Logger) (*SQLBackend, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == "sqlite3" {
		// One writer; sqlite serializes anyway.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	b := &SQLBackend{DB: db, driver: driver, logger: logger}
	if err := b.initializeTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("SQL store ready", zap.String("driver", driver))
	return b, nil
}

func (b *SQLBackend) initializeTables(ctx context.Context) error {
	ddl := `CREATE TABLE IF NOT EXISTS kv (
		k TEXT PRIMARY KEY,
		v TEXT NOT NULL
	)`
	if b.driver == "postgres" {
		ddl = `CREATE TABLE IF NOT EXISTS kv (
			k TEXT COLLATE "C" PRIMARY KEY,
			v TEXT NOT NULL
		)`
	}
	if _, err := b.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create kv table: %w", err)
	}
	return nil
}

func (b *SQLBackend) Get(ctx context.Context, key []byte) ([]byte, error) {
	var v string
	err := b.DB.GetContext(ctx, &v, b.DB.Rebind(`SELECT v FROM kv WHERE k = ?`), hex.EncodeToString(key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %x: %w", key, err)
	}
	return []byte(v), nil
}

func (b *SQLBackend) Scan(ctx context.Context, prefix []byte, fn ScanFunc) error {
	lower := hex.EncodeToString(prefix)
	// 'g' sorts after every hex digit.
	upper := lower + "g"

	var rows []kvRow
	query := b.DB.Rebind(`SELECT k, v FROM kv WHERE k >= ? AND k < ? ORDER BY k`)
	if err := b.DB.SelectContext(ctx, &rows, query, lower, upper); err != nil {
		return fmt.Errorf("scan %x: %w", prefix, err)
	}
	for _, row := range rows {
		key, err := hex.DecodeString(row.K)
		if err != nil {
			return fmt.Errorf("corrupt key %q: %w", row.K, err)
		}
		if err := fn(key, []byte(row.V)); err != nil {
			return err
		}
	}
	return nil
}

func (b *SQLBackend) Apply(ctx context.Context, ops []Op) error {
	tx, err := b.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	upsert := tx.Rebind(`INSERT INTO kv (k, v) VALUES (?, ?)
		ON CONFLICT (k) DO UPDATE SET v = excluded.v`)
	remove := tx.Rebind(`DELETE FROM kv WHERE k = ?`)
	for _, op := range ops {
		k := hex.EncodeToString(op.Key)
		if op.Delete {
			_, err = tx.ExecContext(ctx, remove, k)
		} else {
			_, err = tx.ExecContext(ctx, upsert, k, string(op.Value))
		}
		if err != nil {
			return fmt.Errorf("apply %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (b *SQLBackend) Close(ctx context.Context) error {
	b.logger.Info("Closing SQL store", zap.String("driver", b.driver))
	return b.DB.Close()
}
