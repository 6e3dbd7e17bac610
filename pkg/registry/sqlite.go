package registry

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite, so registrations survive
// gateway restarts. Suitable for single-instance deployments.
//
// The store uses a write-ahead log (WAL) for better concurrent read
// performance and a single writer connection, which is all SQLite
// supports.
type SQLiteStore struct {
	db *sql.DB
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore opens (or creates) the registry database at the given
// path and initializes the schema.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("registry: sqlite path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("registry: open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS module_instances (
		instance_id TEXT PRIMARY KEY,
		module_id   TEXT NOT NULL,
		url         TEXT NOT NULL,
		path_prefix TEXT NOT NULL,
		created_at  INTEGER NOT NULL,
		last_seen   INTEGER NOT NULL,
		seq         INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_module_instances_last_seen ON module_instances(last_seen);
	CREATE INDEX IF NOT EXISTS idx_module_instances_seq ON module_instances(seq);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Register implements Store.
func (s *SQLiteStore) Register(inst *Instance) error {
	_, err := s.db.Exec(`
		INSERT INTO module_instances (instance_id, module_id, url, path_prefix, created_at, last_seen, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM module_instances))
	`,
		inst.InstanceID,
		inst.Module.ID,
		inst.Module.URL,
		inst.Module.PathPrefix,
		inst.CreatedAt.UnixMicro(),
		inst.LastSeen.UnixMicro(),
	)
	if err != nil {
		return fmt.Errorf("registry: insert instance: %w", err)
	}
	return nil
}

// Deregister implements Store.
func (s *SQLiteStore) Deregister(instanceID string) error {
	res, err := s.db.Exec(`DELETE FROM module_instances WHERE instance_id = ?`, instanceID)
	if err != nil {
		return fmt.Errorf("registry: delete instance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("registry: delete instance: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Touch implements Store.
func (s *SQLiteStore) Touch(instanceID string, at time.Time) error {
	res, err := s.db.Exec(`UPDATE module_instances SET last_seen = ? WHERE instance_id = ?`,
		at.UnixMicro(), instanceID)
	if err != nil {
		return fmt.Errorf("registry: touch instance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("registry: touch instance: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List() ([]*Instance, error) {
	rows, err := s.db.Query(`
		SELECT instance_id, module_id, url, path_prefix, created_at, last_seen
		FROM module_instances
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("registry: list instances: %w", err)
	}
	defer rows.Close()

	var out []*Instance
	for rows.Next() {
		var inst Instance
		var createdAt, lastSeen int64
		if err := rows.Scan(
			&inst.InstanceID,
			&inst.Module.ID,
			&inst.Module.URL,
			&inst.Module.PathPrefix,
			&createdAt,
			&lastSeen,
		); err != nil {
			return nil, fmt.Errorf("registry: scan instance: %w", err)
		}
		inst.CreatedAt = time.UnixMicro(createdAt)
		inst.LastSeen = time.UnixMicro(lastSeen)
		out = append(out, &inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("registry: list instances: %w", err)
	}
	return out, nil
}

// PruneStale implements Store.
func (s *SQLiteStore) PruneStale(cutoff time.Time) (int, error) {
	res, err := s.db.Exec(`DELETE FROM module_instances WHERE last_seen < ?`, cutoff.UnixMicro())
	if err != nil {
		return 0, fmt.Errorf("registry: prune stale instances: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("registry: prune stale instances: %w", err)
	}
	return int(n), nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
