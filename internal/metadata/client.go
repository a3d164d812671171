// Package metadata reads table and column comments from the database a
// row class is mapped to.
package metadata

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/toyz/serupd/internal/errors"
	"github.com/toyz/serupd/internal/models"
)

const sqlServerColumnComments = `
SELECT c.name, CAST(ep.value AS NVARCHAR(MAX))
FROM sys.columns c
JOIN sys.extended_properties ep
  ON ep.class = 1 AND ep.major_id = c.object_id AND ep.minor_id = c.column_id AND ep.name = 'MS_Description'
WHERE c.object_id = OBJECT_ID(QUOTENAME(@schema) + '.' + QUOTENAME(@table))
ORDER BY c.column_id`

const sqlServerTableComment = `
SELECT CAST(ep.value AS NVARCHAR(MAX))
FROM sys.extended_properties ep
WHERE ep.class = 1 AND ep.minor_id = 0 AND ep.name = 'MS_Description'
  AND ep.major_id = OBJECT_ID(QUOTENAME(@schema) + '.' + QUOTENAME(@table))`

const postgresColumnComments = `
SELECT a.attname, col_description(a.attrelid, a.attnum)
FROM pg_catalog.pg_attribute a
JOIN pg_catalog.pg_class c ON c.oid = a.attrelid
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1 AND c.relname = $2
  AND a.attnum > 0 AND NOT a.attisdropped
  AND col_description(a.attrelid, a.attnum) IS NOT NULL
ORDER BY a.attnum`

const postgresTableComment = `
SELECT obj_description(c.oid, 'pg_class')
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1 AND c.relname = $2`

// Client reads comments through one database handle
type Client struct {
	db       *sql.DB
	provider Provider
	timeout  time.Duration
	logger   *zap.Logger
}

// NewClient wraps db. A nil db is allowed for providers without comment
// support; every lookup then returns nothing.
func NewClient(db *sql.DB, provider Provider, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{db: db, provider: provider, timeout: timeout, logger: logger}
}

// Provider returns the provider the client talks to
func (c *Client) Provider() Provider {
	return c.provider
}

// ColumnComments returns the column comments of table. Blank comments are
// dropped and the rest trimmed. Providers without column comments yield an
// empty map.
func (c *Client) ColumnComments(ctx context.Context, table string) (*models.ColumnCommentMap, error) {
	comments := models.NewColumnCommentMap(nil)
	query, args, ok := c.query(table, sqlServerColumnComments, postgresColumnComments)
	if !ok {
		return comments, nil
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapMetadataError(string(c.provider), table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var column string
		var comment sql.NullString
		if err := rows.Scan(&column, &comment); err != nil {
			return nil, errors.WrapMetadataError(string(c.provider), table, err)
		}
		comments.Set(column, comment.String)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapMetadataError(string(c.provider), table, err)
	}

	c.logger.Debug("column comments loaded",
		zap.String("provider", string(c.provider)),
		zap.String("table", table),
		zap.Int("count", comments.Len()))
	return comments, nil
}

// TableComment returns the trimmed comment of table, or "" when it has none
func (c *Client) TableComment(ctx context.Context, table string) (string, error) {
	query, args, ok := c.query(table, sqlServerTableComment, postgresTableComment)
	if !ok {
		return "", nil
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var comment sql.NullString
	err := c.db.QueryRowContext(ctx, query, args...).Scan(&comment)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.WrapMetadataError(string(c.provider), table, err)
	}
	return strings.TrimSpace(comment.String), nil
}

// Close closes the underlying handle
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// query picks the provider's statement and binds the parsed table name
func (c *Client) query(table, sqlServer, postgres string) (string, []any, bool) {
	if c.db == nil || !c.provider.SupportsComments() {
		c.logger.Warn("provider has no column comments",
			zap.String("provider", string(c.provider)),
			zap.String("table", table))
		return "", nil, false
	}

	ref := ParseTableName(table, c.provider)
	if c.provider == SQLServer {
		return sqlServer, []any{sql.Named("schema", ref.Schema), sql.Named("table", ref.Name)}, true
	}
	return postgres, []any{ref.Schema, ref.Name}, true
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
