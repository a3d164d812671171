package metadata

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/serupd/internal/config"
	"github.com/toyz/serupd/internal/errors"
)

func TestMapProviderName(t *testing.T) {
	tests := map[string]Provider{
		"Npgsql":                          PostgreSQL,
		"System.Data.SqlClient":           SQLServer,
		"Microsoft.Data.SqlClient":        SQLServer,
		"Microsoft.Data.Sqlite":           SQLite,
		"System.Data.SQLite":              SQLite,
		"MySql.Data.MySqlClient":          MySQL,
		"MySqlConnector":                  MySQL,
		"Oracle.ManagedDataAccess.Client": Oracle,
		"FirebirdSql.Data.FirebirdClient": Provider("firebirdsql.data.firebirdclient"),
		"":                                Unknown,
	}
	for name, want := range tests {
		assert.Equal(t, want, MapProviderName(name), name)
	}
}

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		conn string
		want Provider
	}{
		{"Server=.;Database=Shop;Trusted_Connection=True", SQLServer},
		{"Data Source=db01;Initial Catalog=Shop;User ID=sa", SQLServer},
		{"Host=localhost;Database=shop;Username=app", PostgreSQL},
		{"Data Source=app.db", SQLite},
		{"Data Source=/var/lib/app.sqlite;Cache=Shared", SQLite},
		{"Filename=whatever", Unknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectProvider(tt.conn), tt.conn)
	}

	assert.Equal(t, PostgreSQL, ResolveProvider("Npgsql", "Server=.;Database=x"))
	assert.Equal(t, SQLServer, ResolveProvider("  ", "Server=.;Database=x"))
}

func TestParseTableName(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		want     TableRef
	}{
		{"[dbo].[Orders]", SQLServer, TableRef{"dbo", "Orders"}},
		{"Orders", SQLServer, TableRef{"dbo", "Orders"}},
		{"sales.Orders", SQLServer, TableRef{"sales", "Orders"}},
		{`"Sales"."Orders"`, PostgreSQL, TableRef{"sales", "orders"}},
		{"Orders", PostgreSQL, TableRef{"public", "orders"}},
		{"`orders`", MySQL, TableRef{"", "orders"}},
		{"a.b.c", SQLServer, TableRef{"dbo", "a.b.c"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTableName(tt.name, tt.provider), tt.name)
	}
	assert.Equal(t, "dbo.Orders", TableRef{"dbo", "Orders"}.String())
}

func TestPostgresDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{
			"Host=localhost;Port=5433;Database=shop;Username=app;Password=s3cret;Pooling=true",
			"host=localhost port=5433 dbname=shop user=app password=s3cret",
		},
		{
			"Server=db; User ID=app; Password=it's secret; SSL Mode=VerifyFull",
			`host=db user=app password='it\'s secret' sslmode=verify-full`,
		},
		{"postgres://app@localhost/shop", "postgres://app@localhost/shop"},
		{"host=localhost dbname=shop", "host=localhost dbname=shop"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, postgresDSN(tt.in), tt.in)
	}
}

func newMockClient(t *testing.T, provider Provider) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewClient(db, provider, time.Second, nil), mock
}

func TestClient_PostgresColumnComments(t *testing.T) {
	client, mock := newMockClient(t, PostgreSQL)

	mock.ExpectQuery("col_description").
		WithArgs("public", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"attname", "col_description"}).
			AddRow("cust_id", "  Customer ID ").
			AddRow("note", "   ").
			AddRow("total", nil))

	comments, err := client.ColumnComments(context.Background(), `"Orders"`)
	require.NoError(t, err)
	assert.Equal(t, 1, comments.Len())

	got, ok := comments.Lookup("CUST_ID")
	assert.True(t, ok)
	assert.Equal(t, "Customer ID", got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_SQLServerComments(t *testing.T) {
	client, mock := newMockClient(t, SQLServer)

	mock.ExpectQuery("FROM sys.columns").
		WithArgs(sql.Named("schema", "dbo"), sql.Named("table", "Orders")).
		WillReturnRows(sqlmock.NewRows([]string{"name", "value"}).
			AddRow("OrderNo", "訂單編號"))
	mock.ExpectQuery("ep.minor_id = 0").
		WithArgs(sql.Named("schema", "dbo"), sql.Named("table", "Orders")).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(" 訂單 "))

	comments, err := client.ColumnComments(context.Background(), "[Orders]")
	require.NoError(t, err)
	got, _ := comments.Lookup("orderno")
	assert.Equal(t, "訂單編號", got)

	display, err := client.TableComment(context.Background(), "[Orders]")
	require.NoError(t, err)
	assert.Equal(t, "訂單", display)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_TableCommentMissing(t *testing.T) {
	client, mock := newMockClient(t, PostgreSQL)

	mock.ExpectQuery("obj_description").
		WillReturnRows(sqlmock.NewRows([]string{"obj_description"}))
	mock.ExpectQuery("obj_description").
		WillReturnRows(sqlmock.NewRows([]string{"obj_description"}).AddRow(nil))

	display, err := client.TableComment(context.Background(), "orders")
	require.NoError(t, err)
	assert.Empty(t, display)

	display, err = client.TableComment(context.Background(), "orders")
	require.NoError(t, err)
	assert.Empty(t, display)
}

func TestClient_QueryError(t *testing.T) {
	client, mock := newMockClient(t, PostgreSQL)
	mock.ExpectQuery("col_description").WillReturnError(assert.AnError)

	_, err := client.ColumnComments(context.Background(), "orders")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, errors.MetadataErrorCode, errors.CodeOf(err))
}

func TestClient_UnsupportedProvider(t *testing.T) {
	client := NewClient(nil, SQLite, 0, nil)

	comments, err := client.ColumnComments(context.Background(), "orders")
	require.NoError(t, err)
	assert.True(t, comments.IsEmpty())

	display, err := client.TableComment(context.Background(), "orders")
	require.NoError(t, err)
	assert.Empty(t, display)
	assert.NoError(t, client.Close())
}

func TestPool_OpensOncePerConnection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	var opened []string
	pool := NewPool(time.Second, nil, WithOpener(func(driver, dsn string) (*sql.DB, error) {
		opened = append(opened, driver+"|"+dsn)
		return db, nil
	}))

	conn := config.Connection{Name: "Default", ConnectionString: "Host=db;Database=shop", ProviderName: "Npgsql"}
	for i := 0; i < 2; i++ {
		mock.ExpectQuery("col_description").
			WithArgs("public", "orders").
			WillReturnRows(sqlmock.NewRows([]string{"attname", "col_description"}).AddRow("id", "Id"))
		_, err := pool.ColumnComments(context.Background(), conn, "orders")
		require.NoError(t, err)
	}

	sqlite := config.Connection{Name: "Local", ConnectionString: "Data Source=app.db"}
	comments, err := pool.ColumnComments(context.Background(), sqlite, "orders")
	require.NoError(t, err)
	assert.True(t, comments.IsEmpty())

	assert.Equal(t, []string{"pgx|host=db dbname=shop"}, opened)

	mock.ExpectClose()
	require.NoError(t, pool.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPool_OpenError(t *testing.T) {
	pool := NewPool(0, nil, WithOpener(func(string, string) (*sql.DB, error) {
		return nil, assert.AnError
	}))
	conn := config.Connection{Name: "Default", ConnectionString: "Server=.;Database=x"}

	_, err := pool.TableComment(context.Background(), conn, "Orders")
	require.Error(t, err)
	assert.Equal(t, errors.MetadataErrorCode, errors.CodeOf(err))
	assert.NoError(t, pool.Close())
}
