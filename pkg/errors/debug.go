package errors

import (
	stdErrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// pgDetail is the driver-agnostic subset of a Postgres error worth logging.
type pgDetail struct {
	code, constraint, table, column, detail, message string
}

func postgresDetail(err error) (pgDetail, bool) {
	if pgxErr := (*pgconn.PgError)(nil); stdErrors.As(err, &pgxErr) {
		return pgDetail{
			code:       pgxErr.Code,
			constraint: pgxErr.ConstraintName,
			table:      pgxErr.TableName,
			column:     pgxErr.ColumnName,
			detail:     pgxErr.Detail,
			message:    pgxErr.Message,
		}, true
	}
	if pqErr := (*pq.Error)(nil); stdErrors.As(err, &pqErr) {
		return pgDetail{
			code:       string(pqErr.Code),
			constraint: pqErr.Constraint,
			table:      pqErr.Table,
			column:     pqErr.Column,
			detail:     pqErr.Detail,
			message:    pqErr.Message,
		}, true
	}
	return pgDetail{}, false
}

// Chain lists every error in err's unwrap chain, outermost first, as
// "<type>: <message>".
func Chain(err error) []string {
	var out []string
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		out = append(out, fmt.Sprintf("%T: %v", e, e))
	}
	return out
}

// LogFields flattens err into structured log fields: its message, typed code,
// conflict reason, unwrap chain and any Postgres diagnostics.
func LogFields(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}
	fields := map[string]any{
		"error":       err.Error(),
		"error_chain": Chain(err),
	}
	if typed := As(err); typed != nil {
		fields["error_code"] = string(typed.Code())
		fields["retryable"] = MetadataFor(typed.Code()).Retryable
	}
	if reason := ReasonOf(err); reason != "" {
		fields["reason"] = reason
	}
	if pg, ok := postgresDetail(err); ok {
		fields["pg_code"] = pg.code
		fields["pg_constraint"] = pg.constraint
		fields["pg_table"] = pg.table
		fields["pg_column"] = pg.column
		fields["pg_detail"] = pg.detail
		fields["pg_message"] = pg.message
	}
	return fields
}
