package zombiezen

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prankvz/sentinel/db"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ErrConnectionClosed is returned by Log methods after Close.
var ErrConnectionClosed = errors.New("log db connection closed")

// Log owns a dedicated connection to the log database. It is used only by the
// log daemon goroutine, so a single connection is enough; the mutex guards
// against Close racing a flush during shutdown.
type Log struct {
	mu   sync.Mutex
	conn *sqlite.Conn
}

var _ db.DbLog = (*Log)(nil)

// NewConn opens a SQLite connection tuned for append-heavy writes.
func NewConn(dbPath string) (*sqlite.Conn, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=off", dbPath)

	conn, err := sqlite.OpenConn(dsn, sqlite.OpenReadWrite|sqlite.OpenCreate|sqlite.OpenURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open logging connection: %w", err)
	}
	return conn, nil
}

// NewLog opens the log database at dbPath. The logs table must already exist.
func NewLog(dbPath string) (*Log, error) {
	conn, err := NewConn(dbPath)
	if err != nil {
		return nil, err
	}
	return &Log{conn: conn}, nil
}

// Ping checks that table is readable.
func (l *Log) Ping(table string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return ErrConnectionClosed
	}
	return sqlitex.Execute(l.conn, fmt.Sprintf("SELECT 1 FROM %s LIMIT 1;", table), nil)
}

// InsertBatch writes the batch inside one IMMEDIATE transaction. Either every
// entry is stored or none is.
func (l *Log) InsertBatch(batch []db.Log) (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return ErrConnectionClosed
	}
	if len(batch) == 0 {
		return nil
	}

	if err = sqlitex.Execute(l.conn, "BEGIN IMMEDIATE;", nil); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = sqlitex.Execute(l.conn, "ROLLBACK;", nil)
		}
	}()

	stmt, err := l.conn.Prepare("INSERT INTO logs (level, message, data, created) VALUES ($level, $message, $data, $created)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}

	for _, entry := range batch {
		stmt.SetInt64("$level", entry.Level)
		stmt.SetText("$message", entry.Message)
		stmt.SetText("$data", entry.JsonData)
		stmt.SetText("$created", entry.Created)

		_, err = stmt.Step()
		if resetErr := stmt.Reset(); err == nil {
			err = resetErr
		}
		if err != nil {
			return fmt.Errorf("failed to insert log (msg: %q): %w", entry.Message, err)
		}
	}

	if err = sqlitex.Execute(l.conn, "COMMIT;", nil); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the connection. A second Close returns ErrConnectionClosed.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return ErrConnectionClosed
	}
	err := l.conn.Close()
	l.conn = nil
	return err
}
