package cli

import (
	"github.com/toyz/serupd/internal/config"
)

// Config holds the run options the Runner needs
type Config struct {
	// Pattern is the glob matched against file names, "*Row.cs" by default
	Pattern string

	// Exclude lists file name prefixes that are never processed
	Exclude []string

	// Jobs bounds the number of files processed concurrently
	Jobs int

	// DryRun reports changes without writing them
	DryRun bool

	// ClassAttributes enables the class attribute template and the audit
	// interface, driven by the table comment
	ClassAttributes bool
}

// ConfigFromSettings extracts the runner options from loaded settings
func ConfigFromSettings(s *config.Settings) Config {
	return Config{
		Pattern:         s.Pattern,
		Exclude:         s.Exclude,
		Jobs:            s.Jobs,
		DryRun:          s.DryRun,
		ClassAttributes: s.ClassAttributes,
	}
}

func (c Config) withDefaults() Config {
	if c.Pattern == "" {
		c.Pattern = "*Row.cs"
	}
	if c.Jobs < 1 {
		c.Jobs = 1
	}
	return c
}
