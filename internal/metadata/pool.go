package metadata

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/toyz/serupd/internal/config"
	"github.com/toyz/serupd/internal/errors"
	"github.com/toyz/serupd/internal/models"
	"github.com/toyz/serupd/internal/utils"
)

// Source provides the comments of tables behind named connections
type Source interface {
	ColumnComments(ctx context.Context, conn config.Connection, table string) (*models.ColumnCommentMap, error)
	TableComment(ctx context.Context, conn config.Connection, table string) (string, error)
}

// OpenFunc opens a database handle, matching sql.Open
type OpenFunc func(driverName, dataSourceName string) (*sql.DB, error)

// Pool opens one client per connection on first use and keeps it for the
// rest of the run. It is safe for concurrent use.
type Pool struct {
	clients *utils.Cache[string, *Client]
	open    OpenFunc
	timeout time.Duration
	logger  *zap.Logger
}

// PoolOption configures a Pool
type PoolOption func(*Pool)

// WithOpener replaces sql.Open
func WithOpener(open OpenFunc) PoolOption {
	return func(p *Pool) {
		p.open = open
	}
}

// NewPool creates a pool applying timeout to every query
func NewPool(timeout time.Duration, logger *zap.Logger, opts ...PoolOption) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pool{
		clients: utils.NewCache[string, *Client](),
		open:    sql.Open,
		timeout: timeout,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Client returns the client for conn, opening it on first use
func (p *Pool) Client(conn config.Connection) (*Client, error) {
	return p.clients.GetOrCreate(strings.ToLower(conn.Name), func() (*Client, error) {
		provider := ResolveProvider(conn.ProviderName, conn.ConnectionString)
		logger := p.logger.With(zap.String("connection", conn.Name), zap.String("provider", string(provider)))

		if !provider.SupportsComments() {
			return NewClient(nil, provider, p.timeout, logger), nil
		}

		dsn := conn.ConnectionString
		if provider == PostgreSQL {
			dsn = postgresDSN(dsn)
		}
		db, err := p.open(provider.DriverName(), dsn)
		if err != nil {
			return nil, errors.WrapMetadataError(string(provider), "", err).
				WithContext("connection", conn.Name).
				WithSuggestion("Check the connection string in appsettings.json")
		}
		logger.Debug("database handle opened")
		return NewClient(db, provider, p.timeout, logger), nil
	})
}

// ColumnComments returns the column comments of table through conn
func (p *Pool) ColumnComments(ctx context.Context, conn config.Connection, table string) (*models.ColumnCommentMap, error) {
	client, err := p.Client(conn)
	if err != nil {
		return nil, err
	}
	return client.ColumnComments(ctx, table)
}

// TableComment returns the comment of table through conn
func (p *Pool) TableComment(ctx context.Context, conn config.Connection, table string) (string, error) {
	client, err := p.Client(conn)
	if err != nil {
		return "", err
	}
	return client.TableComment(ctx, table)
}

// Close closes every opened handle
func (p *Pool) Close() error {
	errs := errors.NewMultipleErrors()
	for name, client := range p.clients.Drain() {
		if err := client.Close(); err != nil {
			errs.Add(errors.WrapMetadataError(string(client.Provider()), "", err).WithContext("connection", name))
		}
	}
	if errs.IsEmpty() {
		return nil
	}
	return errs
}
