// Package repository implements MySQL and Redis persistence for the pool
// engine. Lookups that match nothing return apperr.ErrNoRecord and unique
// key violations return apperr.ErrDuplicate, so upper layers never see
// driver-specific errors for those cases.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/pool-reservation/internal/apperr"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// notFound maps sql.ErrNoRows to apperr.ErrNoRecord and passes other
// errors through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNoRecord
	}
	return err
}
