package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const orderRow = `[ConnectionKey("Default"), TableName("dbo.Orders")]
public sealed class OrderRow : Row<OrderRow.RowFields>
{
    [Column("cust_id")]
    public int? CustId { get; set; }
}
`

const appSettings = `{
  "Data": {
    "Default": {
      "ConnectionString": "Server=(local);Database=Shop;Trusted_Connection=True",
      "ProviderName": "Microsoft.Data.SqlClient"
    }
  }
}`

type harness struct {
	root     string
	settings string
	out      bytes.Buffer
	errOut   bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)

	h := &harness{root: filepath.Join(dir, "src"), settings: filepath.Join(dir, "appsettings.json")}
	require.NoError(t, os.MkdirAll(filepath.Join(h.root, "Sales"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(h.root, "Sales", "OrderRow.cs"), []byte(orderRow), 0644))
	require.NoError(t, os.WriteFile(h.settings, []byte(appSettings), 0644))
	return h
}

func (h *harness) run(open func(driver, dsn string) (*sql.DB, error), args ...string) int {
	a := &app{out: &h.out, errOut: &h.errOut, logger: zap.NewNop(), open: open}
	return run(context.Background(), args, a)
}

func (h *harness) orderRow(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.root, "Sales", "OrderRow.cs"))
	require.NoError(t, err)
	return string(data)
}

func mockOpener(t *testing.T, setup func(sqlmock.Sqlmock)) func(driver, dsn string) (*sql.DB, error) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	setup(mock)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return func(driver, dsn string) (*sql.DB, error) {
		assert.Equal(t, "sqlserver", driver)
		return db, nil
	}
}

func TestRun_Help(t *testing.T) {
	h := newHarness(t)

	code := h.run(nil, "--help")

	assert.Equal(t, exitOK, code)
	assert.Contains(t, h.out.String(), "serupd <directory> [appsettings.json]")
	assert.Contains(t, h.out.String(), "--class-attributes")
	assert.Contains(t, h.out.String(), "--query-timeout")
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no arguments", nil, "expected <directory> [appsettings.json], got 0 arguments"},
		{"too many arguments", []string{"a", "b", "c"}, "got 3 arguments"},
		{"unknown flag", []string{"--frobnicate", "."}, "unknown flag"},
		{"unknown backend", []string{"--backend", "roslyn", "."}, "unknown backend"},
		{"no workers", []string{"--jobs", "0", "."}, "jobs"},
		{"missing config file", []string{"--config", "missing.yaml", "."}, "missing.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			code := h.run(nil, tt.args...)
			assert.Equal(t, exitConfigError, code)
			assert.Contains(t, h.errOut.String(), tt.want)
		})
	}
}

func TestRun_MissingInputs(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, exitConfigError, h.run(nil, filepath.Join(h.root, "missing"), h.settings))

	h = newHarness(t)
	assert.Equal(t, exitConfigError, h.run(nil, h.root, filepath.Join(h.root, "missing.json")))
	assert.Contains(t, h.errOut.String(), "Configuration Error")
}

func TestRun_Sync(t *testing.T) {
	h := newHarness(t)
	open := mockOpener(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery("FROM sys.columns").
			WithArgs(sql.Named("schema", "dbo"), sql.Named("table", "Orders")).
			WillReturnRows(sqlmock.NewRows([]string{"name", "value"}).AddRow("cust_id", "客戶"))
		mock.ExpectClose()
	})
	report := filepath.Join(filepath.Dir(h.root), "report.yaml")

	code := h.run(open, "--report", report, h.root, h.settings)

	require.Equal(t, exitOK, code, h.errOut.String())
	assert.Contains(t, h.orderRow(t), "    [DisplayName(\"客戶\")]\n    [Column(\"cust_id\")]\n")
	assert.Contains(t, h.out.String(), "Synchronization complete")
	assert.Contains(t, h.out.String(), "updated: 1")

	data, err := os.ReadFile(report)
	require.NoError(t, err)
	var parsed struct {
		RunID   string `yaml:"run_id"`
		Updated int    `yaml:"updated"`
		Files   []struct {
			Path    string   `yaml:"path"`
			Status  string   `yaml:"status"`
			Changed []string `yaml:"changed"`
		} `yaml:"files"`
	}
	require.NoError(t, yaml.Unmarshal(data, &parsed))
	assert.NotEmpty(t, parsed.RunID)
	assert.Equal(t, 1, parsed.Updated)
	require.Len(t, parsed.Files, 1)
	assert.Equal(t, "updated", parsed.Files[0].Status)
	assert.Equal(t, []string{"CustId"}, parsed.Files[0].Changed)
}

func TestRun_DryRunFromSettingsFile(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.WriteFile("serupd.yaml", []byte("dry_run: true\nbackend: text\n"), 0644))
	open := mockOpener(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery("FROM sys.columns").
			WillReturnRows(sqlmock.NewRows([]string{"name", "value"}).AddRow("cust_id", "Customer"))
		mock.ExpectClose()
	})

	code := h.run(open, h.root, h.settings)

	require.Equal(t, exitOK, code, h.errOut.String())
	assert.Equal(t, orderRow, h.orderRow(t))
	assert.Contains(t, h.out.String(), "Dry run complete")
	assert.Contains(t, h.out.String(), "Would update")
}

func TestRun_AllFilesFailed(t *testing.T) {
	h := newHarness(t)
	open := func(driver, dsn string) (*sql.DB, error) {
		return nil, fmt.Errorf("network unreachable")
	}

	code := h.run(open, h.root, h.settings)

	assert.Equal(t, exitRunFailed, code)
	assert.Contains(t, h.errOut.String(), "1 of 1 files failed")
	assert.Equal(t, orderRow, h.orderRow(t))
}

func TestRun_DefaultAppSettings(t *testing.T) {
	h := newHarness(t)
	open := mockOpener(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery("FROM sys.columns").
			WillReturnRows(sqlmock.NewRows([]string{"name", "value"}))
		mock.ExpectClose()
	})

	code := h.run(open, "--verbose", h.root)

	require.Equal(t, exitOK, code, h.errOut.String())
	assert.Contains(t, h.out.String(), "Skipped")
	assert.Contains(t, h.out.String(), "no column comments")
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
