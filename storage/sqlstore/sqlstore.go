// Package sqlstore serves ledger snapshots from a PostgreSQL database.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/kennyzlei/rippled/ledger"
)

// Schema creates the tables the store reads from.
const Schema = `
CREATE TABLE IF NOT EXISTS ledgers (
	seq         BIGINT PRIMARY KEY,
	hash        BYTEA NOT NULL UNIQUE,
	parent_hash BYTEA NOT NULL,
	closed      BOOLEAN NOT NULL DEFAULT FALSE,
	validated   BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE TABLE IF NOT EXISTS ledger_entries (
	ledger_seq BIGINT NOT NULL REFERENCES ledgers(seq),
	entry_key  BYTEA NOT NULL,
	data       BYTEA NOT NULL,
	PRIMARY KEY (ledger_seq, entry_key)
);`

const headerColumns = `seq, hash, parent_hash, closed, validated`

const (
	queryByHash      = `SELECT ` + headerColumns + ` FROM ledgers WHERE hash = $1`
	queryBySeq       = `SELECT ` + headerColumns + ` FROM ledgers WHERE seq = $1`
	queryValidated   = `SELECT ` + headerColumns + ` FROM ledgers WHERE validated ORDER BY seq DESC LIMIT 1`
	queryClosed      = `SELECT ` + headerColumns + ` FROM ledgers WHERE closed OR validated ORDER BY seq DESC LIMIT 1`
	queryCurrent     = `SELECT ` + headerColumns + ` FROM ledgers ORDER BY seq DESC LIMIT 1`
	queryEntry       = `SELECT data FROM ledger_entries WHERE ledger_seq = $1 AND entry_key = $2`
	insertLedger     = `INSERT INTO ledgers (seq, hash, parent_hash, closed, validated) VALUES ($1, $2, $3, $4, $5)`
	insertLedgerItem = `INSERT INTO ledger_entries (ledger_seq, entry_key, data) VALUES ($1, $2, $3)`
)

type ledgerRow struct {
	Seq        int64  `db:"seq"`
	Hash       []byte `db:"hash"`
	ParentHash []byte `db:"parent_hash"`
	Closed     bool   `db:"closed"`
	Validated  bool   `db:"validated"`
}

func (r ledgerRow) header() (ledger.Header, error) {
	h := ledger.Header{Closed: r.Closed, Validated: r.Validated}
	if r.Seq <= 0 || r.Seq > int64(^uint32(0)) {
		return h, fmt.Errorf("sqlstore: ledger seq %d out of range", r.Seq)
	}
	h.Seq = uint32(r.Seq)
	var ok bool
	if h.Hash, ok = ledger.KeyFromBytes(r.Hash); !ok {
		return h, fmt.Errorf("sqlstore: ledger %d: malformed hash", r.Seq)
	}
	if h.ParentHash, ok = ledger.KeyFromBytes(r.ParentHash); !ok {
		return h, fmt.Errorf("sqlstore: ledger %d: malformed parent hash", r.Seq)
	}
	return h, nil
}

// Store is a ledger.Source over the ledgers and ledger_entries tables.
type Store struct {
	db *sqlx.DB
}

var _ ledger.Source = (*Store)(nil)

func New(db *sqlx.DB) *Store { return &Store{db: db} }

// Open connects to dsn with the postgres driver and checks the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 5
		connMaxLifetime = time.Hour
		connMaxIdleTime = 5 * time.Minute
	)
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}
	return New(db), nil
}

func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, Schema)
	return err
}

func (s *Store) Snapshot(ctx context.Context, ref ledger.Ref) (ledger.Snapshot, error) {
	var (
		row ledgerRow
		err error
	)
	switch {
	case !ref.Hash.IsZero():
		err = s.db.GetContext(ctx, &row, queryByHash, ref.Hash[:])
	case ref.Seq != 0:
		err = s.db.GetContext(ctx, &row, queryBySeq, int64(ref.Seq))
	case ref.Shortcut == ledger.ShortcutValidated:
		err = s.db.GetContext(ctx, &row, queryValidated)
	case ref.Shortcut == ledger.ShortcutClosed:
		err = s.db.GetContext(ctx, &row, queryClosed)
	default:
		err = s.db.GetContext(ctx, &row, queryCurrent)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ledger.ErrLedgerNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: select ledger %s: %w", ref, err)
	}
	h, err := row.header()
	if err != nil {
		return nil, err
	}
	return &snapshot{db: s.db, header: h}, nil
}

// Item is one entry to insert.
type Item struct {
	Key   ledger.Key
	Entry *ledger.Entry
}

// Seal inserts a ledger and its entries in one transaction. The header hash
// must already be set.
func (s *Store) Seal(ctx context.Context, h ledger.Header, items []Item) error {
	if h.Seq == 0 || h.Hash.IsZero() {
		return fmt.Errorf("sqlstore: ledger needs a sequence and a hash")
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, insertLedger, int64(h.Seq), h.Hash[:], h.ParentHash[:], h.Closed, h.Validated); err != nil {
		return fmt.Errorf("sqlstore: insert ledger %d: %w", h.Seq, err)
	}
	for _, it := range items {
		b, err := it.Entry.Marshal()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertLedgerItem, int64(h.Seq), it.Key[:], b); err != nil {
			return fmt.Errorf("sqlstore: insert entry %s: %w", it.Key, err)
		}
	}
	return tx.Commit()
}

type snapshot struct {
	db     *sqlx.DB
	header ledger.Header
}

func (s *snapshot) Header() ledger.Header { return s.header }

func (s *snapshot) Read(ctx context.Context, key ledger.Key) (*ledger.Entry, error) {
	var data []byte
	err := s.db.GetContext(ctx, &data, queryEntry, int64(s.header.Seq), key[:])
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: read %s: %w", key, err)
	}
	return ledger.Unmarshal(data)
}
