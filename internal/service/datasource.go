package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"sync"

	"github.com/lib/pq"
	"github.com/saadbenchekroun/data-visualizer/internal/dataset"
)

const DefaultImportLimit = 1000

var (
	ErrNotConnected = errors.New("data source not connected")
	ErrUnknownTable = errors.New("unknown table")
)

// DataSourceConfig holds connection details. URL, when set, wins over the
// individual fields.
type DataSourceConfig struct {
	URL      string `json:"url,omitempty"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"` // "disable", "require"
}

// DSN returns the connection string for lib/pq.
func (c DataSourceConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   c.Host,
		Path:   "/" + c.DBName,
	}
	if c.Port != 0 {
		u.Host += ":" + strconv.Itoa(c.Port)
	}
	if c.User != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u.RawQuery = url.Values{"sslmode": {sslMode}}.Encode()
	return u.String()
}

// DataSource is a database tables can be imported from.
type DataSource interface {
	Connect(ctx context.Context, cfg DataSourceConfig) error
	Close() error
	Connected() bool
	ListTables(ctx context.Context) ([]string, error)
	ReadTable(ctx context.Context, table string, limit int) (*dataset.Dataset, error)
}

// PostgresDataSource implements DataSource for PostgreSQL. Only tables of the
// public schema are visible.
type PostgresDataSource struct {
	mu sync.RWMutex
	db *sql.DB
}

func NewPostgresDataSource() *PostgresDataSource {
	return &PostgresDataSource{}
}

// Connect opens and pings a connection, replacing any previous one.
func (p *PostgresDataSource) Connect(ctx context.Context, cfg DataSourceConfig) error {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}

	p.mu.Lock()
	old := p.db
	p.db = db
	p.mu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

func (p *PostgresDataSource) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

// Connected reports whether Connect has succeeded and Close not been called since.
func (p *PostgresDataSource) Connected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.db != nil
}

func (p *PostgresDataSource) conn() (*sql.DB, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.db == nil {
		return nil, ErrNotConnected
	}
	return p.db, nil
}

func (p *PostgresDataSource) ListTables(ctx context.Context) ([]string, error) {
	db, err := p.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// ReadTable reads up to limit rows of table into a dataset named after it.
// The table must be one ListTables returns.
func (p *PostgresDataSource) ReadTable(ctx context.Context, table string, limit int) (*dataset.Dataset, error) {
	tables, err := p.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(tables, table) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	if limit <= 0 {
		limit = DefaultImportLimit
	}

	db, err := p.conn()
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT * FROM public.%s LIMIT %d", pq.QuoteIdentifier(table), limit)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read table %q: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]any, len(columns))
		for i, col := range columns {
			record[col] = values[i]
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dataset.FromMaps(table, columns, records)
}
