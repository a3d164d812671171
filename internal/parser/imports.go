package parser

import (
	"strings"

	"github.com/toyz/serupd/internal/models"
)

// parseUsing interprets the text of a using directive
//
//	using System;
//	global using static System.Math;
//	using Rows = EnterpriseOne.Rows;
func parseUsing(text string) (models.Import, bool) {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, ";")

	var imp models.Import
	fields := strings.Fields(text)
	i := 0
	if i < len(fields) && fields[i] == "global" {
		imp.Global = true
		i++
	}
	if i >= len(fields) || fields[i] != "using" {
		return models.Import{}, false
	}
	i++
	for i < len(fields) && (fields[i] == "static" || fields[i] == "unsafe") {
		if fields[i] == "static" {
			imp.Static = true
		}
		i++
	}

	rest := strings.Join(fields[i:], "")
	if eq := strings.IndexByte(rest, '='); eq >= 0 {
		imp.Alias = rest[:eq]
		rest = rest[eq+1:]
	}
	if rest == "" {
		return models.Import{}, false
	}
	imp.Name = rest
	return imp, true
}

// compact removes all whitespace from a type reference
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
