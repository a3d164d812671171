package metadata

import "strings"

// npgsqlKeywords maps Npgsql connection string keywords (lower-cased,
// spaces removed) to libpq keywords understood by pgx.
var npgsqlKeywords = map[string]string{
	"host":                    "host",
	"server":                  "host",
	"port":                    "port",
	"database":                "dbname",
	"initialcatalog":          "dbname",
	"username":                "user",
	"userid":                  "user",
	"user":                    "user",
	"uid":                     "user",
	"password":                "password",
	"pwd":                     "password",
	"sslmode":                 "sslmode",
	"timeout":                 "connect_timeout",
	"applicationname":         "application_name",
	"searchpath":              "search_path",
	"targetsessionattributes": "target_session_attrs",
}

// postgresDSN converts an Npgsql style "Key=Value;..." connection string to
// the libpq keyword/value form. URLs and strings that are already in
// keyword/value form are returned unchanged. Keywords pgx does not know
// (Pooling, Maximum Pool Size, ...) are dropped.
func postgresDSN(connectionString string) string {
	s := strings.TrimSpace(connectionString)
	if strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://") || !strings.Contains(s, ";") {
		return s
	}

	var parts []string
	for _, pair := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.Join(strings.Fields(key), ""))
		keyword, known := npgsqlKeywords[key]
		if !known {
			continue
		}
		value = strings.TrimSpace(value)
		if keyword == "sslmode" {
			value = sslModes.Replace(strings.ToLower(value))
		}
		parts = append(parts, keyword+"="+quoteDSNValue(value))
	}
	return strings.Join(parts, " ")
}

var sslModes = strings.NewReplacer("verifyfull", "verify-full", "verifyca", "verify-ca")

func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
