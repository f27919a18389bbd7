package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/funvibe/mcheck/internal/term"
)

// Store is a handle on one SQLite-backed checkpoint database. It is safe
// for concurrent use by multiple engines checkpointing under distinct run
// IDs (database/sql pools its own connections); callers still own exactly
// one Store per process the way they own exactly one solver per engine.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the checkpoint database at path and
// runs its schema migration. An empty path is rejected by the caller
// before reaching here — cmd/mcheck opens a Store only when its
// --checkpoint flag is non-empty.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers anyway; keep it honest
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id     TEXT PRIMARY KEY,
	engine     TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS kind_snapshots (
	run_id           TEXT PRIMARY KEY REFERENCES runs(run_id),
	k                INTEGER NOT NULL,
	invariants       TEXT NOT NULL,
	optimistic_names TEXT NOT NULL,
	unknown_names    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ic3ia_snapshots (
	run_id     TEXT NOT NULL,
	prop_name  TEXT NOT NULL,
	frame_top  INTEGER NOT NULL,
	predicates TEXT NOT NULL,
	frames     TEXT NOT NULL,
	PRIMARY KEY (run_id, prop_name)
);
`

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("checkpoint: migrate: %w", err)
	}
	return nil
}

func (s *Store) touchRun(ctx context.Context, tx *sql.Tx, runID, engine string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, engine, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET updated_at = excluded.updated_at`,
		runID, engine, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// KindSnapshot is one persisted moment of a k-induction engine's step
// state.
type KindSnapshot struct {
	RunID           string
	K               int64
	Invariants      []*term.Term
	OptimisticNames []string
	UnknownNames    []string
}

// SaveKind upserts snap, replacing whatever was previously stored for
// snap.RunID.
func (s *Store) SaveKind(ctx context.Context, snap KindSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("checkpoint: SaveKind: %w", err)
	}
	defer tx.Rollback()

	if err := s.touchRun(ctx, tx, snap.RunID, "kind"); err != nil {
		return fmt.Errorf("checkpoint: SaveKind: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO kind_snapshots (run_id, k, invariants, optimistic_names, unknown_names)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET
		   k = excluded.k, invariants = excluded.invariants,
		   optimistic_names = excluded.optimistic_names, unknown_names = excluded.unknown_names`,
		snap.RunID, snap.K, encodeTerms(snap.Invariants),
		encodeNames(snap.OptimisticNames), encodeNames(snap.UnknownNames))
	if err != nil {
		return fmt.Errorf("checkpoint: SaveKind: %w", err)
	}
	return tx.Commit()
}

// LoadKind reads back a previously saved KindSnapshot, decoding its
// persisted terms against store using resolve to recover state variables.
// ok is false if no snapshot exists for runID.
func (s *Store) LoadKind(ctx context.Context, store *term.Store, resolve VarResolver, runID string) (snap KindSnapshot, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT k, invariants, optimistic_names, unknown_names FROM kind_snapshots WHERE run_id = ?`, runID)

	var k int64
	var invData, optData, unkData string
	if err := row.Scan(&k, &invData, &optData, &unkData); err != nil {
		if err == sql.ErrNoRows {
			return KindSnapshot{}, false, nil
		}
		return KindSnapshot{}, false, fmt.Errorf("checkpoint: LoadKind: %w", err)
	}

	invariants, err := decodeTerms(store, resolve, invData)
	if err != nil {
		return KindSnapshot{}, false, fmt.Errorf("checkpoint: LoadKind: %w", err)
	}
	optimistic, err := decodeNames(optData)
	if err != nil {
		return KindSnapshot{}, false, fmt.Errorf("checkpoint: LoadKind: %w", err)
	}
	unknown, err := decodeNames(unkData)
	if err != nil {
		return KindSnapshot{}, false, fmt.Errorf("checkpoint: LoadKind: %w", err)
	}

	return KindSnapshot{
		RunID:           runID,
		K:               k,
		Invariants:      invariants,
		OptimisticNames: optimistic,
		UnknownNames:    unknown,
	}, true, nil
}

// IC3IASnapshot is one persisted moment of an IC3IA engine's frame/predicate
// state for a single property.
type IC3IASnapshot struct {
	RunID      string
	PropName   string
	FrameTop   int64
	Predicates []*term.Term // Π
	Frames     [][]*term.Term
}

// SaveIC3IA upserts snap, keyed by (RunID, PropName).
func (s *Store) SaveIC3IA(ctx context.Context, snap IC3IASnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("checkpoint: SaveIC3IA: %w", err)
	}
	defer tx.Rollback()

	if err := s.touchRun(ctx, tx, snap.RunID, "ic3ia"); err != nil {
		return fmt.Errorf("checkpoint: SaveIC3IA: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO ic3ia_snapshots (run_id, prop_name, frame_top, predicates, frames)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, prop_name) DO UPDATE SET
		   frame_top = excluded.frame_top, predicates = excluded.predicates, frames = excluded.frames`,
		snap.RunID, snap.PropName, snap.FrameTop, encodeTerms(snap.Predicates), encodeTermLevels(snap.Frames))
	if err != nil {
		return fmt.Errorf("checkpoint: SaveIC3IA: %w", err)
	}
	return tx.Commit()
}

// LoadIC3IA reads back a previously saved IC3IASnapshot for (runID,
// propName). ok is false if none exists.
func (s *Store) LoadIC3IA(ctx context.Context, store *term.Store, resolve VarResolver, runID, propName string) (snap IC3IASnapshot, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT frame_top, predicates, frames FROM ic3ia_snapshots WHERE run_id = ? AND prop_name = ?`,
		runID, propName)

	var frameTop int64
	var predData, framesData string
	if err := row.Scan(&frameTop, &predData, &framesData); err != nil {
		if err == sql.ErrNoRows {
			return IC3IASnapshot{}, false, nil
		}
		return IC3IASnapshot{}, false, fmt.Errorf("checkpoint: LoadIC3IA: %w", err)
	}

	predicates, err := decodeTerms(store, resolve, predData)
	if err != nil {
		return IC3IASnapshot{}, false, fmt.Errorf("checkpoint: LoadIC3IA: %w", err)
	}
	levels, err := decodeTermLevels(store, resolve, framesData)
	if err != nil {
		return IC3IASnapshot{}, false, fmt.Errorf("checkpoint: LoadIC3IA: %w", err)
	}

	return IC3IASnapshot{
		RunID:      runID,
		PropName:   propName,
		FrameTop:   frameTop,
		Predicates: predicates,
		Frames:     levels,
	}, true, nil
}
