package sentinel

// Helpers to open SQLite pools for sentinel. When another component of the
// process writes to the same file it must share the pool, otherwise writers
// contend and fail with SQLITE_BUSY.

import (
	"fmt"
	"runtime"
	"time"

	"zombiezen.com/go/sqlite/sqlitex"
)

var explicitBusyTimeout = 5 * time.Second

// NewZombiezenPool opens a pool on dbPath in WAL mode with a busy timeout.
// A poolSize <= 0 uses one connection per CPU.
func NewZombiezenPool(dbPath string, poolSize int) (*sqlitex.Pool, error) {
	if poolSize <= 0 {
		poolSize = runtime.NumCPU()
	}

	// busy_timeout in DSN is in milliseconds.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=%d&_foreign_keys=off",
		dbPath,
		explicitBusyTimeout.Milliseconds(),
	)

	// Default OpenFlags (ReadWrite | Create | WAL | URI) are used by NewPool.
	// The URI flag is necessary for the DSN parameters to be parsed.
	pool, err := sqlitex.NewPool(dsn, sqlitex.PoolOptions{
		PoolSize: poolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create zombiezen pool at %s: %w", dbPath, err)
	}
	return pool, nil
}
