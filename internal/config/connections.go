package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/toyz/serupd/internal/errors"
)

// Connection is one entry of the appsettings.json Data section
type Connection struct {
	Name             string `yaml:"name"`
	ConnectionString string `yaml:"-"`
	ProviderName     string `yaml:"provider,omitempty"`
}

// Connections holds the named connections of an application. Names are
// matched case-insensitively, like .NET configuration keys.
type Connections struct {
	byName map[string]Connection
}

// NewConnections builds a Connections value from explicit entries
func NewConnections(list ...Connection) *Connections {
	c := &Connections{byName: make(map[string]Connection, len(list))}
	for _, conn := range list {
		if strings.TrimSpace(conn.ConnectionString) == "" {
			continue
		}
		c.byName[strings.ToLower(conn.Name)] = conn
	}
	return c
}

// LoadConnections reads Data.<name>.ConnectionString and
// Data.<name>.ProviderName from an appsettings.json file. Entries without
// a connection string are ignored.
func LoadConnections(path string) (*Connections, error) {
	// .NET configuration separates sections with ':' so connection names
	// may contain dots.
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WrapConfigurationError("appsettings", "read "+path, err).
			WithSuggestion("Pass the path of the application's appsettings.json as the second argument")
	}

	data, ok := lookupFold(v.AllSettings(), "Data").(map[string]interface{})
	if !ok {
		return NewConnections(), nil
	}

	var list []Connection
	for name, raw := range data {
		section, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		list = append(list, Connection{
			Name:             name,
			ConnectionString: stringFold(section, "ConnectionString"),
			ProviderName:     stringFold(section, "ProviderName"),
		})
	}
	return NewConnections(list...), nil
}

// Lookup returns the connection registered under name, ignoring case
func (c *Connections) Lookup(name string) (Connection, bool) {
	if c == nil {
		return Connection{}, false
	}
	conn, ok := c.byName[strings.ToLower(name)]
	return conn, ok
}

// Names returns the registered connection names in sorted order
func (c *Connections) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.byName))
	for _, conn := range c.byName {
		names = append(names, conn.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of usable connections
func (c *Connections) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byName)
}

func lookupFold(m map[string]interface{}, key string) interface{} {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

func stringFold(m map[string]interface{}, key string) string {
	switch v := lookupFold(m, key).(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
