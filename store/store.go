// Package store は実験の実行、試行結果、学習済みの方策を SQLite に記録します。
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sw965/smartcab/action"
	"github.com/sw965/smartcab/agent"
	"github.com/sw965/smartcab/ql"
	"github.com/sw965/smartcab/simulator"
	"github.com/sw965/smartcab/state"
	_ "modernc.org/sqlite"
)

var ErrRunNotFound = errors.New("Storeエラー: run が存在しません")

const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id      TEXT PRIMARY KEY,
		seed        BIGINT,
		alpha       DOUBLE,
		gamma       DOUBLE,
		epsilon     DOUBLE,
		default_q   DOUBLE,
		started_at  TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS trials (
		run_id        TEXT,
		trial         BIGINT,
		success       BOOLEAN,
		reached       BOOLEAN,
		steps         BIGINT,
		net_reward    DOUBLE,
		penalties     BIGINT,
		deadline_left BIGINT,
		PRIMARY KEY(run_id, trial),
		FOREIGN KEY(run_id) REFERENCES runs(run_id)
	);
	CREATE TABLE IF NOT EXISTS policies (
		run_id TEXT,
		state  TEXT,
		action TEXT,
		value  DOUBLE,
		PRIMARY KEY(run_id, state),
		FOREIGN KEY(run_id) REFERENCES runs(run_id)
	);
`

type Run struct {
	ID        string
	Seed      uint64
	Learning  ql.Config
	StartedAt time.Time
}

func NewRun(seed uint64, learning ql.Config) Run {
	return Run{
		ID:        uuid.NewString(),
		Seed:      seed,
		Learning:  learning,
		StartedAt: time.Now().UTC(),
	}
}

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, seed, alpha, gamma, epsilon, default_q, started_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, int64(r.Seed), r.Learning.Alpha, r.Learning.Gamma, r.Learning.Epsilon, r.Learning.DefaultQ,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *Store) Run(ctx context.Context, runID string) (Run, error) {
	var r Run
	var seed int64
	var startedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, seed, alpha, gamma, epsilon, default_q, started_at FROM runs WHERE run_id = ?`, runID,
	).Scan(&r.ID, &seed, &r.Learning.Alpha, &r.Learning.Gamma, &r.Learning.Epsilon, &r.Learning.DefaultQ, &startedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return Run{}, err
	}
	r.Seed = uint64(seed)
	r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("parsing started_at for run %s: %w", runID, err)
	}
	return r, nil
}

func (s *Store) RecordTrial(ctx context.Context, runID string, t simulator.TrialResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trials (run_id, trial, success, reached, steps, net_reward, penalties, deadline_left) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, t.Trial, t.Success, t.Reached, t.Steps, t.NetReward, t.Penalties, t.DeadlineLeft,
	)
	return err
}

// Trials は runID の試行結果を試行番号順に返す。
func (s *Store) Trials(ctx context.Context, runID string) ([]simulator.TrialResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT trial, success, reached, steps, net_reward, penalties, deadline_left FROM trials WHERE run_id = ? ORDER BY trial`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []simulator.TrialResult
	for rows.Next() {
		var t simulator.TrialResult
		if err := rows.Scan(&t.Trial, &t.Success, &t.Reached, &t.Steps, &t.NetReward, &t.Penalties, &t.DeadlineLeft); err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

// SavePolicy は runID の学習済み方策を置き換える。
func (s *Store) SavePolicy(ctx context.Context, runID string, entries []agent.PolicyEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM policies WHERE run_id = ?`, runID); err != nil {
		return err
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO policies (run_id, state, action, value) VALUES (?, ?, ?, ?)`,
			runID, string(e.State), e.Action.String(), e.Value,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Policy は runID の学習済み方策を状態の順に返す。
func (s *Store) Policy(ctx context.Context, runID string) ([]agent.PolicyEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state, action, value FROM policies WHERE run_id = ? ORDER BY state`, runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []agent.PolicyEntry
	for rows.Next() {
		var st, act string
		var e agent.PolicyEntry
		if err := rows.Scan(&st, &act, &e.Value); err != nil {
			return nil, err
		}
		e.State = state.State(st)
		if e.Action, err = action.Parse(act); err != nil {
			return nil, fmt.Errorf("policy for run %s: %w", runID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DB は下位の接続を返す。任意のクエリ用。
func (s *Store) DB() *sql.DB {
	return s.db
}
