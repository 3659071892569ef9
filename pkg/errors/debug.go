package errors

import (
	"errors"
	"fmt"

	pgconnv4 "github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump is the log-only view of an error chain. It is never sent to clients.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.fillPG(err)
	return d
}

// fillPG copies server-side detail from whichever postgres driver produced
// err. gorm's pgx driver, goose's lib/pq and pgconn v4 all appear in the chain
// depending on the caller.
func (d *ErrorDump) fillPG(err error) {
	var (
		v5 *pgconn.PgError
		v4 *pgconnv4.PgError
		pe *pq.Error
	)
	switch {
	case errors.As(err, &v5):
		d.PGCode, d.PGMessage, d.PGDetail = v5.Code, v5.Message, v5.Detail
		d.PGTable, d.PGColumn, d.PGConstraint = v5.TableName, v5.ColumnName, v5.ConstraintName
	case errors.As(err, &v4):
		d.PGCode, d.PGMessage, d.PGDetail = v4.Code, v4.Message, v4.Detail
		d.PGTable, d.PGColumn, d.PGConstraint = v4.TableName, v4.ColumnName, v4.ConstraintName
	case errors.As(err, &pe):
		d.PGCode, d.PGMessage, d.PGDetail = string(pe.Code), pe.Message, pe.Detail
		d.PGTable, d.PGColumn, d.PGConstraint = pe.Table, pe.Column, pe.Constraint
	}
}

// PGCode returns the SQLSTATE of a postgres driver error, or "".
func PGCode(err error) string {
	var d ErrorDump
	d.fillPG(err)
	return d.PGCode
}
