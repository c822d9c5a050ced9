package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/saadbenchekroun/data-visualizer/internal/dataset"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestDataSourceConfigDSN(t *testing.T) {
	tests := []struct {
		name     string
		cfg      DataSourceConfig
		expected string
	}{
		{
			name:     "url wins",
			cfg:      DataSourceConfig{URL: "postgres://a@b/c", Host: "ignored"},
			expected: "postgres://a@b/c",
		},
		{
			name:     "fields",
			cfg:      DataSourceConfig{Host: "db", Port: 5432, User: "viz", Password: "p@ss", DBName: "shop", SSLMode: "require"},
			expected: "postgres://viz:p%40ss@db:5432/shop?sslmode=require",
		},
		{
			name:     "ssl disabled by default",
			cfg:      DataSourceConfig{Host: "localhost", DBName: "shop"},
			expected: "postgres://localhost/shop?sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.cfg.DSN())
		})
	}
}

func TestPostgresDataSourceNotConnected(t *testing.T) {
	ctx := context.Background()
	ds := NewPostgresDataSource()

	require.False(t, ds.Connected())
	_, err := ds.ListTables(ctx)
	require.ErrorIs(t, err, ErrNotConnected)
	_, err = ds.ReadTable(ctx, "orders", 10)
	require.ErrorIs(t, err, ErrNotConnected)
	require.NoError(t, ds.Close())
}

func TestPostgresDataSource(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to cleanup postgres container: %v", err)
		}
	}()

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)
	url := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", url)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.ExecContext(ctx, `
		CREATE TABLE "Order Lines" (
			region TEXT,
			amount NUMERIC(10, 2),
			units INTEGER,
			paid BOOLEAN,
			placed_at TIMESTAMP
		);
		INSERT INTO "Order Lines" VALUES
			('North', 10.50, 1, true, '2024-01-01 10:00:00'),
			('South', 20.25, 2, false, '2024-01-02 11:00:00'),
			('North', NULL, 3, true, '2024-01-03 12:00:00');
		CREATE TABLE customers (id SERIAL PRIMARY KEY, name TEXT);
	`)
	require.NoError(t, err)

	source := NewPostgresDataSource()
	require.NoError(t, source.Connect(ctx, DataSourceConfig{URL: url}))
	defer source.Close()
	require.True(t, source.Connected())

	tables, err := source.ListTables(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Order Lines", "customers"}, tables)

	got, err := source.ReadTable(ctx, "Order Lines", 0)
	require.NoError(t, err)
	require.Equal(t, "Order Lines", got.Name)
	require.Equal(t, []string{"region", "amount", "units", "paid", "placed_at"}, got.ColumnNames())
	require.Equal(t, 3, got.NumRows())

	types := map[string]dataset.DType{}
	for _, col := range got.Columns {
		types[col.Name] = col.DType
	}
	require.Equal(t, map[string]dataset.DType{
		"region":    dataset.DTypeString,
		"amount":    dataset.DTypeFloat,
		"units":     dataset.DTypeInt,
		"paid":      dataset.DTypeBool,
		"placed_at": dataset.DTypeDatetime,
	}, types)

	amount, _ := got.Column("amount")
	require.Nil(t, amount.Values[2])
	placed, _ := got.Column("placed_at")
	require.Equal(t, 2024, placed.Values[0].(time.Time).Year())

	limited, err := source.ReadTable(ctx, "Order Lines", 2)
	require.NoError(t, err)
	require.Equal(t, 2, limited.NumRows())

	_, err = source.ReadTable(ctx, "customers; DROP TABLE customers", 10)
	require.ErrorIs(t, err, ErrUnknownTable)
}
