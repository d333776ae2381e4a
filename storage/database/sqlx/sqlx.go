// Package sqlxrepos implements the core repositories on PostgreSQL with sqlx and squirrel.
package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/studyplanner/core"
)

// DB is satisfied by both *sqlx.DB and *sqlx.Tx.
type DB interface {
	sqlx.ExtContext
}

const uniqueViolation = "23505"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func newID() string {
	return uuid.NewString()
}

// orderBy applies orderings, falling back to dflt. Orderings are expected to
// be whitelisted already (core.AllowedOrderings).
func orderBy(b sq.SelectBuilder, ordering []core.DBOrdering, dflt ...string) sq.SelectBuilder {
	if len(ordering) == 0 {
		return b.OrderBy(dflt...)
	}
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		clauses = append(clauses, ord.String())
	}
	return b.OrderBy(append(clauses, "id")...)
}

func selectAll(ctx context.Context, db DB, dest interface{}, b sq.Sqlizer) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return errors.Wrap(sqlx.SelectContext(ctx, db, dest, q, args...), "selecting rows")
}

// getOne scans a single row into dest, returning notFound when there is none.
func getOne(ctx context.Context, db DB, dest interface{}, b sq.Sqlizer, notFound error) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if err := sqlx.GetContext(ctx, db, dest, q, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound
		}
		return errors.Wrap(err, "getting row")
	}
	return nil
}

// exec runs b and returns notFound when no row was affected.
func exec(ctx context.Context, db DB, b sq.Sqlizer, notFound error) (int64, error) {
	q, args, err := b.ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "reading affected rows")
	}
	if n == 0 && notFound != nil {
		return 0, notFound
	}
	return n, nil
}

// uniqueConstraint returns the violated constraint of a unique_violation error.
func uniqueConstraint(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// ilike matches any of the columns against a case-insensitive substring.
func ilike(search string, columns ...string) sq.Or {
	pattern := "%" + strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(search) + "%"
	or := make(sq.Or, 0, len(columns))
	for _, col := range columns {
		or = append(or, sq.ILike{col: pattern})
	}
	return or
}
