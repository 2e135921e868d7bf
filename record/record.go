// Package record stores simulation results in an SQLite database so that
// predictor configurations can be compared across runs.
package record

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"

	"github.com/sarchlab/bpsim/sim"
)

const schema = `
CREATE TABLE IF NOT EXISTS bpsim_runs (
	run_id             TEXT PRIMARY KEY,
	trace              TEXT,
	predictor          TEXT,
	strategy           TEXT,
	ghistory_bits      INTEGER,
	lhistory_bits      INTEGER,
	pc_index_bits      INTEGER,
	size_bits          INTEGER,
	branches           INTEGER,
	mispredictions     INTEGER,
	misprediction_rate REAL,
	wall_time_ns       INTEGER
);
CREATE TABLE IF NOT EXISTS bpsim_branches (
	run_id         TEXT,
	pc             INTEGER,
	executions     INTEGER,
	taken          INTEGER,
	mispredictions INTEGER
);
`

// Run is the summary of one predictor over one trace.
type Run struct {
	ID                string
	Trace             string
	Predictor         string
	Strategy          string
	GlobalHistoryBits int
	LocalHistoryBits  int
	PCIndexBits       int
	SizeBits          int
	Branches          uint64
	Mispredictions    uint64
	MispredictionRate float64
	WallTimeNS        int64
}

type branchRow struct {
	runID   string
	profile sim.BranchProfile
}

// NewRunID returns a unique, time-ordered run identifier.
func NewRunID() string {
	return xid.New().String()
}

// Recorder buffers results and writes them in a single transaction on
// Flush. It is not safe for concurrent use.
type Recorder struct {
	db       *sql.DB
	filename string

	runs     []Run
	branches []branchRow
}

// New creates a new database file for recording. The ".sqlite3" suffix is
// added when missing and an empty path gets a generated name. An existing
// file is never overwritten.
func New(path string) (*Recorder, error) {
	if path == "" {
		path = "bpsim_results_" + xid.New().String()
	}

	filename := sqliteFilename(path)

	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("file %s already exists", filename)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to check %s: %w", filename, err)
	}

	return openFile(filename)
}

// Open appends to the database at path, creating it when it does not exist
// yet. Runs recorded earlier are kept.
func Open(path string) (*Recorder, error) {
	if path == "" {
		return nil, errors.New("result database path is empty")
	}

	return openFile(sqliteFilename(path))
}

func sqliteFilename(path string) string {
	if strings.HasSuffix(path, ".sqlite3") {
		return path
	}
	return path + ".sqlite3"
}

func openFile(filename string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open result database: %w", err)
	}

	r, err := NewWithDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	r.filename = filename

	return r, nil
}

// NewWithDB creates a Recorder over an already opened database.
func NewWithDB(db *sql.DB) (*Recorder, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create result tables: %w", err)
	}

	return &Recorder{db: db}, nil
}

// Filename returns the database file, or "" when the Recorder was created
// with NewWithDB.
func (r *Recorder) Filename() string {
	return r.filename
}

// RecordRun buffers a run summary. A missing ID is generated.
func (r *Recorder) RecordRun(run Run) string {
	if run.ID == "" {
		run.ID = NewRunID()
	}

	r.runs = append(r.runs, run)

	return run.ID
}

// RecordBranches buffers per-branch profiles belonging to a run.
func (r *Recorder) RecordBranches(runID string, profiles []sim.BranchProfile) {
	for _, p := range profiles {
		r.branches = append(r.branches, branchRow{runID: runID, profile: p})
	}
}

// Flush writes all buffered entries to the database.
func (r *Recorder) Flush() error {
	if len(r.runs) == 0 && len(r.branches) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := r.insertRuns(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := r.insertBranches(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit results: %w", err)
	}

	r.runs = nil
	r.branches = nil

	return nil
}

func (r *Recorder) insertRuns(tx *sql.Tx) error {
	stmt, err := tx.Prepare(`INSERT INTO bpsim_runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare run insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, run := range r.runs {
		_, err := stmt.Exec(
			run.ID,
			run.Trace,
			run.Predictor,
			run.Strategy,
			run.GlobalHistoryBits,
			run.LocalHistoryBits,
			run.PCIndexBits,
			run.SizeBits,
			int64(run.Branches),
			int64(run.Mispredictions),
			run.MispredictionRate,
			run.WallTimeNS,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
		}
	}

	return nil
}

func (r *Recorder) insertBranches(tx *sql.Tx) error {
	stmt, err := tx.Prepare(`INSERT INTO bpsim_branches VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare branch insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range r.branches {
		_, err := stmt.Exec(
			row.runID,
			int64(row.profile.PC),
			int64(row.profile.Executions),
			int64(row.profile.Taken),
			int64(row.profile.Mispredictions),
		)
		if err != nil {
			return fmt.Errorf("failed to insert branch 0x%x: %w", row.profile.PC, err)
		}
	}

	return nil
}

// Runs returns every run stored in the database, oldest first.
func (r *Recorder) Runs() ([]Run, error) {
	return queryRuns(r.db)
}

// Branches returns the stored profiles of one run ordered by address.
func (r *Recorder) Branches(runID string) ([]sim.BranchProfile, error) {
	rows, err := r.db.Query(
		`SELECT pc, executions, taken, mispredictions FROM bpsim_branches
		WHERE run_id = ? ORDER BY pc`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query branches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	profiles := []sim.BranchProfile{}
	for rows.Next() {
		var pc, executions, taken, mispredictions int64
		if err := rows.Scan(&pc, &executions, &taken, &mispredictions); err != nil {
			return nil, fmt.Errorf("failed to scan branch: %w", err)
		}

		profiles = append(profiles, sim.BranchProfile{
			PC:             uint32(pc),
			Executions:     uint64(executions),
			Taken:          uint64(taken),
			Mispredictions: uint64(mispredictions),
		})
	}

	return profiles, rows.Err()
}

// Close flushes pending entries and closes the database.
func (r *Recorder) Close() error {
	flushErr := r.Flush()
	closeErr := r.db.Close()

	return errors.Join(flushErr, closeErr)
}

// LoadRuns opens an existing result database and returns its runs.
func LoadRuns(filename string) ([]Run, error) {
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("failed to open result database: %w", err)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open result database: %w", err)
	}
	defer func() { _ = db.Close() }()

	return queryRuns(db)
}

func queryRuns(db *sql.DB) ([]Run, error) {
	rows, err := db.Query(`SELECT * FROM bpsim_runs ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []Run{}
	for rows.Next() {
		var run Run
		var branches, mispredictions int64

		err := rows.Scan(
			&run.ID,
			&run.Trace,
			&run.Predictor,
			&run.Strategy,
			&run.GlobalHistoryBits,
			&run.LocalHistoryBits,
			&run.PCIndexBits,
			&run.SizeBits,
			&branches,
			&mispredictions,
			&run.MispredictionRate,
			&run.WallTimeNS,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Branches = uint64(branches)
		run.Mispredictions = uint64(mispredictions)
		runs = append(runs, run)
	}

	return runs, rows.Err()
}
