package metadata

import "strings"

// Provider identifies a database engine
type Provider string

const (
	SQLServer  Provider = "sqlserver"
	PostgreSQL Provider = "postgresql"
	SQLite     Provider = "sqlite"
	MySQL      Provider = "mysql"
	Oracle     Provider = "oracle"
	Unknown    Provider = "unknown"
)

// MapProviderName maps an ADO.NET provider invariant name to a Provider.
// Names outside the known set are returned lower-cased.
func MapProviderName(name string) Provider {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch lower {
	case "npgsql":
		return PostgreSQL
	case "system.data.sqlclient", "microsoft.data.sqlclient":
		return SQLServer
	case "microsoft.data.sqlite", "system.data.sqlite":
		return SQLite
	case "mysql.data.mysqlclient", "mysqlconnector":
		return MySQL
	case "oracle.manageddataaccess.client":
		return Oracle
	case "":
		return Unknown
	}
	return Provider(lower)
}

// DetectProvider guesses the provider from connection string keywords.
// SQL Server is checked before PostgreSQL, so "Server=...;Database=..."
// resolves to SQL Server.
func DetectProvider(connectionString string) Provider {
	lower := strings.ToLower(connectionString)
	has := func(s string) bool { return strings.Contains(lower, s) }

	switch {
	case has("server=") || has("data source=") && (has("database=") || has("initial catalog=")):
		return SQLServer
	case has("host="):
		return PostgreSQL
	case has(".db") || has(".sqlite") || has("data source="):
		return SQLite
	}
	return Unknown
}

// ResolveProvider prefers the declared provider name and falls back to
// detection from the connection string.
func ResolveProvider(providerName, connectionString string) Provider {
	if strings.TrimSpace(providerName) != "" {
		return MapProviderName(providerName)
	}
	return DetectProvider(connectionString)
}

// SupportsComments reports whether column comments can be read for p
func (p Provider) SupportsComments() bool {
	return p == SQLServer || p == PostgreSQL
}

// DriverName returns the database/sql driver registered for p
func (p Provider) DriverName() string {
	switch p {
	case SQLServer:
		return "sqlserver"
	case PostgreSQL:
		return "pgx"
	}
	return ""
}
