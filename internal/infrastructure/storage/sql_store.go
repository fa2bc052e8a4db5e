package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ReputationScanner/internal/domain"
	"ReputationScanner/internal/ports"
)

// Supported storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverFile     = "file"
)

const (
	graphTable = "reputation_graph"
	graphRowID = 1
)

// SQLStore persists the whole project graph as a single JSON document row.
type SQLStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.GraphStore = (*SQLStore)(nil)

// OpenSQLStore opens the database, applies driver settings and creates the table.
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	var placeholder sq.PlaceholderFormat
	switch driver {
	case DriverSQLite:
		placeholder = sq.Question
	case DriverPostgres:
		placeholder = sq.Dollar
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=10000"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("set pragma: %w", err)
			}
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	store := NewSQLStore(db, placeholder)
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wires an already opened sql.DB.
func NewSQLStore(db *sql.DB, placeholder sq.PlaceholderFormat) *SQLStore {
	return &SQLStore{db: db, builder: sq.StatementBuilder.PlaceholderFormat(placeholder)}
}

func (s *SQLStore) migrate(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS reputation_graph (
              id INTEGER PRIMARY KEY,
              body TEXT NOT NULL,
              updated_at TIMESTAMP NOT NULL)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", graphTable, err)
	}
	return nil
}

// LoadGraph returns the stored graph, or an empty one before the first save.
func (s *SQLStore) LoadGraph(ctx context.Context) (domain.Graph, error) {
	query, args, err := s.builder.Select("body").From(graphTable).Where(sq.Eq{"id": graphRowID}).ToSql()
	if err != nil {
		return domain.Graph{}, fmt.Errorf("build select: %w", err)
	}

	var body string
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Graph{}, nil
	}
	if err != nil {
		return domain.Graph{}, fmt.Errorf("select graph: %w", err)
	}

	var graph domain.Graph
	if err := json.Unmarshal([]byte(body), &graph); err != nil {
		return domain.Graph{}, fmt.Errorf("decode graph: %w", err)
	}
	return graph, nil
}

// SaveGraph replaces the stored graph.
func (s *SQLStore) SaveGraph(ctx context.Context, graph domain.Graph) error {
	body, err := json.Marshal(graph)
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}

	query, args, err := s.builder.Insert(graphTable).
		Columns("id", "body", "updated_at").
		Values(graphRowID, string(body), time.Now().UTC()).
		Suffix("ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert graph: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
