package sqlxrepos

import (
	"github.com/jmoiron/sqlx"

	"github.com/prologin/gccsite/core"
	"github.com/prologin/gccsite/storage/database"
)

// getExec prefers the service-provided executor (a running transaction)
// over the repository's own connection. Transactions handed out by
// database.DB are sqlx-capable; anything else falls back to the pool.
func getExec(db *database.DB, svcExec []core.DBExecutor) sqlx.ExtContext {
	if len(svcExec) > 0 && svcExec[0] != nil {
		if ext, ok := svcExec[0].(sqlx.ExtContext); ok {
			return ext
		}
	}
	return db.DB
}
