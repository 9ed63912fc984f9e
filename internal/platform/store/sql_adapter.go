package store

import (
	"context"
	"errors"
	"time"

	perr "hydroflow/internal/platform/errors"
	"hydroflow/internal/platform/store/pg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgAdapter implements TxRunner over a pgx pool
// Driver errors are mapped by SQLSTATE; a missing row is NotFound
type pgAdapter struct {
	p *pg.PG
}

func newPGAdapter(p *pg.PG) *pgAdapter { return &pgAdapter{p: p} }

func (a *pgAdapter) Ping(ctx context.Context) error {
	if a == nil || a.p == nil {
		return errors.New("pg: nil adapter")
	}
	return a.p.Pool.Ping(ctx)
}

func (a *pgAdapter) Close() error { a.p.Close(); return nil }

func (a *pgAdapter) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return execWith(ctx, a.p.Pool, a.trace(), sql, args)
}

func (a *pgAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return queryWith(ctx, a.p.Pool, a.trace(), sql, args)
}

func (a *pgAdapter) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return queryRowWith(ctx, a.p.Pool, a.trace(), sql, args)
}

func (a *pgAdapter) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	tx, err := a.p.Pool.Begin(ctx)
	if err != nil {
		return dbErr(err, "begin")
	}
	if err := fn(txQuerier{tx: tx, tr: a.trace()}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return dbErr(tx.Commit(ctx), "commit")
}

func (a *pgAdapter) trace() tracer {
	return tracer{t: a.p.Tracer, slowUS: int64(a.p.SlowMs) * 1000}
}

// txQuerier is the RowQuerier handed to Tx callbacks
type txQuerier struct {
	tx pgx.Tx
	tr tracer
}

func (t txQuerier) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	return execWith(ctx, t.tx, t.tr, sql, args)
}

func (t txQuerier) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return queryWith(ctx, t.tx, t.tr, sql, args)
}

func (t txQuerier) QueryRow(ctx context.Context, sql string, args ...any) Row {
	return queryRowWith(ctx, t.tx, t.tr, sql, args)
}

// pgxQuerier is what both the pool and a tx offer
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func execWith(ctx context.Context, q pgxQuerier, tr tracer, sql string, args []any) (CommandTag, error) {
	start := time.Now()
	ct, err := q.Exec(ctx, sql, args...)
	tr.emit(ctx, sql, args, start, err)
	return tag{ct}, dbErr(err, "exec")
}

func queryWith(ctx context.Context, q pgxQuerier, tr tracer, sql string, args []any) (Rows, error) {
	start := time.Now()
	rs, err := q.Query(ctx, sql, args...)
	tr.emit(ctx, sql, args, start, err)
	if err != nil {
		return nil, dbErr(err, "query")
	}
	return rows{r: rs}, nil
}

func queryRowWith(ctx context.Context, q pgxQuerier, tr tracer, sql string, args []any) Row {
	start := time.Now()
	r := q.QueryRow(ctx, sql, args...)
	return row{r: r, after: func(scanErr error) { tr.emit(ctx, sql, args, start, scanErr) }}
}

// dbErr maps driver errors onto perr codes
func dbErr(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return perr.WithOp(perr.Wrap(err, perr.ErrorCodeNotFound, "not found"), op)
	}
	if pe, ok := perr.ExtractPgError(err); ok {
		return perr.WithOp(perr.FromPostgresf(err, "postgres %s", pe.Code), op)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return perr.WithOp(perr.Wrap(err, perr.ErrorCodeDB, "postgres"), op)
}

type tracer struct {
	t      pg.QueryTracer
	slowUS int64
}

func (t tracer) emit(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if t.t == nil {
		return
	}
	elapsedUS := time.Since(start).Microseconds()
	t.t.OnQuery(ctx, pg.QueryEvent{
		SQL:       sql,
		Args:      args,
		ElapsedUS: elapsedUS,
		Err:       err,
		Slow:      t.slowUS > 0 && elapsedUS >= t.slowUS,
	})
}

type row struct {
	r     pgx.Row
	after func(error)
}

func (x row) Scan(dst ...any) error {
	err := x.r.Scan(dst...)
	if x.after != nil {
		x.after(err)
	}
	return dbErr(err, "scan")
}

type rows struct{ r pgx.Rows }

func (x rows) Next() bool            { return x.r.Next() }
func (x rows) Scan(dst ...any) error { return dbErr(x.r.Scan(dst...), "scan") }
func (x rows) Err() error            { return dbErr(x.r.Err(), "rows") }
func (x rows) Close()                { x.r.Close() }

type tag struct{ t pgconn.CommandTag }

func (t tag) String() string      { return t.t.String() }
func (t tag) RowsAffected() int64 { return t.t.RowsAffected() }
