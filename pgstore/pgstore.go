// Package pgstore implements a snapshot store on PostgreSQL.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/stockfolio"
	"github.com/etnz/stockfolio/date"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const schema = `
CREATE TABLE IF NOT EXISTS portfolios (
	name text PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS snapshots (
	name           text NOT NULL,
	on_date        date NOT NULL,
	first_purchase date,
	revision       uuid NOT NULL,
	PRIMARY KEY (name, on_date)
);
CREATE TABLE IF NOT EXISTS snapshot_holdings (
	name     text    NOT NULL,
	on_date  date    NOT NULL,
	symbol   text    NOT NULL,
	quantity numeric NOT NULL,
	PRIMARY KEY (name, on_date, symbol),
	FOREIGN KEY (name, on_date) REFERENCES snapshots (name, on_date) ON DELETE CASCADE
);`

// Store is a stockfolio.SnapshotStore in a PostgreSQL database.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database at dbURL and creates the tables if needed.
func New(ctx context.Context, dbURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	// Ensure the connection is established.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("cannot create snapshot tables: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes all the connections.
func (s *Store) Close() { s.pool.Close() }

// Save implements stockfolio.SnapshotStore.
func (s *Store) Save(ctx context.Context, snap stockfolio.Snapshot) error {
	if snap.Name == "" || snap.On.IsZero() {
		return fmt.Errorf("%w: snapshot name and date must be given", stockfolio.ErrInvalidArgument)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO snapshots (name, on_date, first_purchase, revision)
			VALUES ($1, $2, $3, $4::uuid)
			ON CONFLICT (name, on_date) DO UPDATE
			SET first_purchase = EXCLUDED.first_purchase, revision = EXCLUDED.revision`,
			snap.Name, snap.On.Time(), nullable(snap.FirstPurchase), snap.Revision.String())
		if err != nil {
			return fmt.Errorf("cannot write snapshot %v: %w", snap.Key(), err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM snapshot_holdings WHERE name = $1 AND on_date = $2`,
			snap.Name, snap.On.Time()); err != nil {
			return fmt.Errorf("cannot write snapshot %v: %w", snap.Key(), err)
		}

		batch := &pgx.Batch{}
		for _, h := range snap.Holdings {
			batch.Queue(`INSERT INTO snapshot_holdings (name, on_date, symbol, quantity) VALUES ($1, $2, $3, $4)`,
				snap.Name, snap.On.Time(), h.Symbol, h.Quantity.Decimal())
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("cannot write snapshot %v holdings: %w", snap.Key(), err)
		}
		return nil
	})
}

// Load implements stockfolio.SnapshotStore.
func (s *Store) Load(ctx context.Context, name string, on date.Date) (stockfolio.Snapshot, error) {
	snap := stockfolio.Snapshot{Name: name, On: on}
	var (
		first    *time.Time
		revision string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT first_purchase, revision::text FROM snapshots WHERE name = $1 AND on_date = $2`,
		name, on.Time()).Scan(&first, &revision)
	if errors.Is(err, pgx.ErrNoRows) {
		return snap, fmt.Errorf("%w: %s@%s", stockfolio.ErrSnapshotNotFound, name, on)
	}
	if err != nil {
		return snap, fmt.Errorf("cannot read snapshot %s@%s: %w", name, on, err)
	}
	if first != nil {
		snap.FirstPurchase = date.Of(*first)
	}
	if err := snap.Revision.UnmarshalText([]byte(revision)); err != nil {
		return snap, fmt.Errorf("invalid revision of snapshot %s@%s: %w", name, on, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT symbol, quantity FROM snapshot_holdings WHERE name = $1 AND on_date = $2 ORDER BY symbol`,
		name, on.Time())
	if err != nil {
		return snap, fmt.Errorf("cannot read snapshot %s@%s holdings: %w", name, on, err)
	}
	snap.Holdings, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (stockfolio.SnapshotHolding, error) {
		var (
			h   stockfolio.SnapshotHolding
			qty decimal.Decimal
		)
		err := row.Scan(&h.Symbol, &qty)
		h.Quantity = stockfolio.Q(qty)
		return h, err
	})
	if err != nil {
		return snap, fmt.Errorf("cannot read snapshot %s@%s holdings: %w", name, on, err)
	}
	return snap, nil
}

// Declare implements stockfolio.SnapshotStore.
func (s *Store) Declare(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: portfolio name must be given", stockfolio.ErrInvalidArgument)
	}
	if _, err := s.pool.Exec(ctx, `INSERT INTO portfolios (name) VALUES ($1) ON CONFLICT DO NOTHING`, name); err != nil {
		return fmt.Errorf("cannot declare portfolio %q: %w", name, err)
	}
	return nil
}

// Scan implements stockfolio.SnapshotStore.
func (s *Store) Scan(ctx context.Context) ([]stockfolio.SnapshotKey, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, NULL::date AS on_date FROM portfolios
		UNION ALL
		SELECT name, on_date FROM snapshots
		ORDER BY name, on_date NULLS FIRST`)
	if err != nil {
		return nil, fmt.Errorf("cannot scan snapshots: %w", err)
	}
	keys, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (stockfolio.SnapshotKey, error) {
		var (
			k  stockfolio.SnapshotKey
			on *time.Time
		)
		err := row.Scan(&k.Name, &on)
		if on != nil {
			k.On = date.Of(*on)
		}
		return k, err
	})
	if err != nil {
		return nil, fmt.Errorf("cannot scan snapshots: %w", err)
	}
	return keys, nil
}

// Delete removes name and all its snapshots.
func (s *Store) Delete(ctx context.Context, name string) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM snapshots WHERE name = $1`, name); err != nil {
			return fmt.Errorf("cannot delete snapshots of %q: %w", name, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM portfolios WHERE name = $1`, name); err != nil {
			return fmt.Errorf("cannot delete portfolio %q: %w", name, err)
		}
		return nil
	})
}

// nullable returns nil for the zero date.
func nullable(d date.Date) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time()
	return &t
}
