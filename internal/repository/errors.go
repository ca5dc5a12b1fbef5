// Package repository holds the MySQL data access layer. Driver errors are
// translated into booking error kinds here so handlers see one taxonomy.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/exam-reservation/internal/booking"
)

// ErrEmailExists is returned when registering an email that is taken.
var ErrEmailExists = errors.New("email already exists")

const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// mapErr wraps err with op and converts missing rows and unique violations
// into booking errors.
func mapErr(err error, op string, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return booking.NotFound("%s not found", what)
	case isDuplicate(err):
		return &booking.Error{Kind: booking.KindDuplicateValue, Msg: what + " already exists", Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
