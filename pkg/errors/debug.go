package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the diagnostic view of an error logged alongside 5xx
// responses. Database errors contribute their driver-level detail.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`

	// SQLiteConstraint is set when the embedded sqlite engine rejected a write.
	SQLiteConstraint string `json:"sqlite_constraint,omitempty"`
}

// Dump flattens err for logging.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
		return d
	}

	d.SQLiteConstraint = sqliteConstraint(err.Error())
	return d
}

// sqliteConstraint extracts the "UNIQUE constraint failed: users.email" style
// suffix sqlite reports, or "" when the message carries none.
func sqliteConstraint(msg string) string {
	const marker = "constraint failed: "
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return ""
	}
	kind := msg[:idx]
	if space := strings.LastIndexByte(kind, ' '); space >= 0 {
		kind = kind[space+1:]
	}
	target := msg[idx+len(marker):]
	if end := strings.IndexAny(target, " ;\n"); end >= 0 {
		target = target[:end]
	}
	return strings.TrimSpace(kind + " " + target)
}
