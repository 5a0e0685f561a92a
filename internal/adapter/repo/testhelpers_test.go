package repo

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

// recordingExec captures statements and answers QueryRow with row.
type recordingExec struct {
	queries  []string
	args     [][]any
	affected int64
	row      simpleRow
}

func (e *recordingExec) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	e.queries = append(e.queries, query)
	e.args = append(e.args, args)
	return pgconn.NewCommandTag("UPDATE " + strconv.FormatInt(e.affected, 10)), nil
}

func (e *recordingExec) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	e.queries = append(e.queries, query)
	e.args = append(e.args, args)
	return e.row
}
