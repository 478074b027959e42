package lookup

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	errx "github.com/clinic-frontdesk/agent/internal/core/error"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

// Rows is a small tabular result.
type Rows struct {
	Columns []string
	Values  [][]any
}

// Render prints one "col: value; col: value" line per row.
func (r Rows) Render() string {
	if len(r.Values) == 0 {
		return "(no rows)"
	}
	var b strings.Builder
	for i, row := range r.Values {
		if i > 0 {
			b.WriteString("\n")
		}
		for j, v := range row {
			if j > 0 {
				b.WriteString("; ")
			}
			col := fmt.Sprintf("col%d", j)
			if j < len(r.Columns) {
				col = r.Columns[j]
			}
			b.WriteString(col)
			b.WriteString(": ")
			b.WriteString(renderValue(v))
		}
	}
	return b.String()
}

func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04")
	case driver.Valuer:
		dv, err := t.Value()
		if err != nil || dv == nil {
			return "-"
		}
		return renderValue(dv)
	default:
		return fmt.Sprint(t)
	}
}

// Store runs guarded read-only statements against the clinic database.
type Store interface {
	Query(ctx context.Context, statement string) (Rows, error)
}

// PgStore executes statements inside read-only transactions.
type PgStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPgStore(pool *pgxpool.Pool, timeout time.Duration) *PgStore {
	return &PgStore{pool: pool, timeout: timeout}
}

// Query implements Store.
func (s *PgStore) Query(ctx context.Context, statement string) (Rows, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return Rows{}, errx.WrapPostgres(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, statement)
	if err != nil {
		logx.Error().Err(err).Str("statement", statement).Msg("Lookup query failed")
		return Rows{}, errx.WrapPostgres(err)
	}
	defer rows.Close()

	var out Rows
	for _, fd := range rows.FieldDescriptions() {
		out.Columns = append(out.Columns, fd.Name)
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return Rows{}, errx.WrapPostgres(err)
		}
		out.Values = append(out.Values, vals)
	}
	if err := rows.Err(); err != nil {
		return Rows{}, errx.WrapPostgres(err)
	}
	return out, nil
}

// Ping checks the pool.
func (s *PgStore) Ping(ctx context.Context) error {
	return errx.WrapPostgres(s.pool.Ping(ctx))
}
