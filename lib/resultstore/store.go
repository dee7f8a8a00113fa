package resultstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"brutto-netto/lib/batch"
	"brutto-netto/lib/timezone"

	_ "modernc.org/sqlite"
)

const Schema = `
create table if not exists runs (
	id integer primary key autoincrement,
	started_at integer not null
);

create table if not exists results (
	run_id integer not null references runs(id) on delete cascade,
	input text not null,
	gross text not null,
	net text,
	outcome text not null,
	error text
);
`

// Store keeps a history of converted amounts in sqlite.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the database at path, ":memory:"
// works for a throwaway store.
func Open(path string) (Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return Store{}, err
	}
	if path == ":memory:" {
		// every connection to :memory: is its own database
		db.SetMaxOpenConns(1)
	}
	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return Store{}, fmt.Errorf("apply schema: %w", err)
	}
	return Store{db: db}, nil
}

func (s Store) Close() error {
	return s.db.Close()
}

// SaveRun stores all records of a single run in one transaction and
// returns the run's id.
func (s Store) SaveRun(ctx context.Context, startedAt time.Time, records []batch.Record) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "insert into runs(started_at) values (?)", startedAt.Unix())
	if err != nil {
		return 0, err
	}
	runId, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, r := range records {
		var net, errText sql.NullString
		if r.Outcome == batch.Success {
			net = sql.NullString{String: r.Net, Valid: true}
		}
		if r.Err != nil {
			errText = sql.NullString{String: r.Err.Error(), Valid: true}
		}
		_, err = tx.ExecContext(
			ctx,
			"insert into results(run_id, input, gross, net, outcome, error) values (?, ?, ?, ?, ?, ?)",
			runId, r.Input, r.Gross, net, r.Outcome.String(), errText,
		)
		if err != nil {
			return 0, err
		}
	}

	return runId, tx.Commit()
}

type Run struct {
	Id        int64
	StartedAt time.Time
	Records   []batch.Record
}

func parseOutcome(s string) (batch.Outcome, error) {
	for _, o := range []batch.Outcome{batch.Success, batch.Timeout, batch.Failed, batch.Invalid} {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}

// Runs lists the stored runs, newest first. Errors are restored as their
// message only.
func (s Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"select id, started_at from runs order by id desc limit ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt int64
		err = rows.Scan(&run.Id, &startedAt)
		if err != nil {
			rows.Close()
			return nil, err
		}
		run.StartedAt = timezone.In(time.Unix(startedAt, 0))
		runs = append(runs, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		runs[i].Records, err = s.records(ctx, runs[i].Id)
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (s Store) records(ctx context.Context, runId int64) ([]batch.Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"select input, gross, net, outcome, error from results where run_id = ? order by rowid",
		runId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []batch.Record
	for rows.Next() {
		var r batch.Record
		var net, errText sql.NullString
		var outcome string
		err = rows.Scan(&r.Input, &r.Gross, &net, &outcome, &errText)
		if err != nil {
			return nil, err
		}
		r.Net = net.String
		r.Outcome, err = parseOutcome(outcome)
		if err != nil {
			return nil, err
		}
		if errText.Valid {
			r.Err = storedError(strings.TrimSpace(errText.String))
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type storedError string

func (e storedError) Error() string {
	return string(e)
}
