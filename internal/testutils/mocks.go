// Package testutils provides shared mocks for the storage interfaces used
// across handler and worker tests.
package testutils

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MockClickHouseConn implements driver.Conn for testing
type MockClickHouseConn struct {
	driver.Conn
	QueryFunc        func(ctx context.Context, query string, args ...interface{}) (driver.Rows, error)
	QueryRowFunc     func(ctx context.Context, query string, args ...interface{}) driver.Row
	ExecFunc         func(ctx context.Context, query string, args ...interface{}) error
	PrepareBatchFunc func(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error)
	PingFunc         func(ctx context.Context) error
}

func (m *MockClickHouseConn) Query(ctx context.Context, query string, args ...interface{}) (driver.Rows, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, query, args...)
	}
	return &MockRows{}, nil
}

func (m *MockClickHouseConn) QueryRow(ctx context.Context, query string, args ...interface{}) driver.Row {
	if m.QueryRowFunc != nil {
		return m.QueryRowFunc(ctx, query, args...)
	}
	return &MockRow{}
}

func (m *MockClickHouseConn) Exec(ctx context.Context, query string, args ...interface{}) error {
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, query, args...)
	}
	return nil
}

func (m *MockClickHouseConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	if m.PrepareBatchFunc != nil {
		return m.PrepareBatchFunc(ctx, query, opts...)
	}
	return &MockBatch{}, nil
}

func (m *MockClickHouseConn) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *MockClickHouseConn) Close() error { return nil }

// MockRow implements driver.Row with an optional scan override
type MockRow struct {
	ScanFunc func(dest ...interface{}) error
	ScanErr  error
}

func (m *MockRow) Scan(dest ...interface{}) error {
	if m.ScanFunc != nil {
		return m.ScanFunc(dest...)
	}
	return m.ScanErr
}

func (m *MockRow) ScanStruct(dest interface{}) error { return nil }
func (m *MockRow) Err() error                        { return nil }

// MockRows implements driver.Rows over a fixed list of scan callbacks, one
// per row.
type MockRows struct {
	Rows    []func(dest ...interface{}) error
	idx     int
	ScanErr error
}

func (m *MockRows) Next() bool {
	return m.idx < len(m.Rows)
}

func (m *MockRows) Scan(dest ...interface{}) error {
	if m.ScanErr != nil {
		return m.ScanErr
	}
	fn := m.Rows[m.idx]
	m.idx++
	return fn(dest...)
}

func (m *MockRows) ScanStruct(dest interface{}) error   { return nil }
func (m *MockRows) Close() error                        { return nil }
func (m *MockRows) Err() error                          { return nil }
func (m *MockRows) Columns() []string                   { return []string{} }
func (m *MockRows) ColumnTypes() []driver.ColumnType    { return []driver.ColumnType{} }
func (m *MockRows) Totals(dest ...interface{}) error    { return nil }

// MockBatch implements driver.Batch and records appended rows
type MockBatch struct {
	Appended  [][]interface{}
	Sent      bool
	AppendErr error
	SendErr   error
}

func (m *MockBatch) IsSent() bool { return m.Sent }
func (m *MockBatch) Rows() int    { return len(m.Appended) }

func (m *MockBatch) Append(v ...interface{}) error {
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.Appended = append(m.Appended, v)
	return nil
}

func (m *MockBatch) AppendStruct(v interface{}) error { return nil }
func (m *MockBatch) Column(int) driver.BatchColumn    { return nil }

func (m *MockBatch) Send() error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.Sent = true
	return nil
}

func (m *MockBatch) Flush() error { return nil }
func (m *MockBatch) Abort() error { return nil }

// MockPgPool implements the pgx pool interface used by the services
type MockPgPool struct {
	QueryFunc    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	ExecFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (m *MockPgPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, sql, args...)
	}
	return &MockPGXRows{}, nil
}

func (m *MockPgPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.QueryRowFunc != nil {
		return m.QueryRowFunc(ctx, sql, args...)
	}
	return &MockPGXRow{}
}

func (m *MockPgPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if m.ExecFunc != nil {
		return m.ExecFunc(ctx, sql, args...)
	}
	return pgconn.CommandTag{}, nil
}

// MockPGXRow implements pgx.Row
type MockPGXRow struct {
	ScanFunc func(dest ...any) error
}

func (m *MockPGXRow) Scan(dest ...any) error {
	if m.ScanFunc != nil {
		return m.ScanFunc(dest...)
	}
	return nil
}

// MockPGXRows implements pgx.Rows
type MockPGXRows struct {
	ScanFuncs []func(dest ...any) error
	idx       int
}

func (m *MockPGXRows) Close()                                       {}
func (m *MockPGXRows) Err() error                                   { return nil }
func (m *MockPGXRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (m *MockPGXRows) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (m *MockPGXRows) Next() bool {
	return m.idx < len(m.ScanFuncs)
}

func (m *MockPGXRows) Scan(dest ...any) error {
	fn := m.ScanFuncs[m.idx]
	m.idx++
	return fn(dest...)
}

func (m *MockPGXRows) Values() ([]any, error) { return nil, nil }
func (m *MockPGXRows) RawValues() [][]byte    { return nil }
func (m *MockPGXRows) Conn() *pgx.Conn        { return nil }
