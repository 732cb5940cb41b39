package aggregates

import (
	"hash/fnv"

	"github.com/yungbote/formflow-backend/internal/platform/dbctx"
)

// advisoryXactLock takes a Postgres transaction-scoped advisory lock on key.
// Other dialects serialize writers at the connection level and skip it.
func advisoryXactLock(dbc dbctx.Context, key string) error {
	if dbc.Tx == nil {
		return ValidationError("advisory lock requires a transaction")
	}
	if dbc.Tx.Dialector == nil || dbc.Tx.Dialector.Name() != "postgres" {
		return nil
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return dbc.Tx.WithContext(dbc.Ctx).Exec("SELECT pg_advisory_xact_lock(?)", int64(h.Sum64())).Error
}
