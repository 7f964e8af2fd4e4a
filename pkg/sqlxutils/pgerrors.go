package sqlxutils

import (
	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// ForeignKeyViolation reports the violated constraint name when err is a PostgreSQL FK violation.
func ForeignKeyViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return "", false
	}
	if string(pqErr.Code) != pgerrcode.ForeignKeyViolation {
		return "", false
	}
	return pqErr.Constraint, true
}
