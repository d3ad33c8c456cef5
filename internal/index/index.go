package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SniffIndex remembers sniffed MIME types by payload digest so a fresh
// launch does not spawn the sniffer once per history entry again.
type SniffIndex struct {
	dbPath string
	db     *sql.DB
	mu     sync.Mutex
	now    func() time.Time
}

func New(dbPath string, reindex bool) (*SniffIndex, error) {
	if reindex {
		_ = os.Remove(dbPath)
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps ":memory:" databases coherent across calls.
	db.SetMaxOpenConns(1)

	i := &SniffIndex{dbPath: dbPath, db: db, now: time.Now}
	if err := i.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return i, nil
}

func (i *SniffIndex) Close() error {
	return i.db.Close()
}

func (i *SniffIndex) initSchema() error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`CREATE TABLE IF NOT EXISTS sniffs (
			digest TEXT PRIMARY KEY,
			mime TEXT NOT NULL,
			sniffed_at INTEGER
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sniffs_sniffed_at ON sniffs(sniffed_at);`,
	}
	for _, stmt := range stmts {
		if _, err := i.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Lookup satisfies classify.Cache. Read errors count as a miss.
func (i *SniffIndex) Lookup(digest string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	var mime string
	err := i.db.QueryRow(`SELECT mime FROM sniffs WHERE digest = ?`, digest).Scan(&mime)
	if err != nil {
		return "", false
	}
	return mime, true
}

func (i *SniffIndex) Store(digest, mime string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, err := i.db.Exec(`
		INSERT INTO sniffs(digest, mime, sniffed_at)
		VALUES(?, ?, ?)
		ON CONFLICT(digest) DO UPDATE SET
			mime=excluded.mime,
			sniffed_at=excluded.sniffed_at
	`, digest, mime, i.now().Unix())
	if err != nil {
		return fmt.Errorf("store sniff result: %w", err)
	}
	return nil
}

// Prune drops results not refreshed since cutoff and returns how many went.
func (i *SniffIndex) Prune(cutoff time.Time) (int64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	res, err := i.db.Exec(`DELETE FROM sniffs WHERE sniffed_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune sniff index: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune sniff index: %w", err)
	}
	return n, nil
}

func (i *SniffIndex) Count() (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	var n int
	if err := i.db.QueryRow(`SELECT COUNT(*) FROM sniffs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sniffs: %w", err)
	}
	return n, nil
}
