package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/exam-reservation/internal/booking"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// where accumulates AND-ed conditions and their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return "1=1"
	}
	return strings.Join(w.conds, " AND ")
}

// orderBy renders an ORDER BY clause. columns maps sort field names to SQL
// columns; fields outside it are skipped. Ties break on id descending.
func orderBy(fields []booking.SortField, columns map[string]string) string {
	parts := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		col, ok := columns[f.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if f.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	if len(parts) == 0 {
		parts = append(parts, "created_at DESC")
	}
	parts = append(parts, "id DESC")
	return " ORDER BY " + strings.Join(parts, ", ")
}
