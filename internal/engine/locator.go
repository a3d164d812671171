package engine

import (
	"strings"

	"github.com/toyz/serupd/internal/errors"
	"github.com/toyz/serupd/internal/models"
)

// Locate selects the row class of a unit. The first class whose name ends
// with nameSuffix wins; failing that, the first class whose name does not
// contain fallbackExclude. Classes deriving from a type ending in
// baseMarkerSuffix are never selected.
func Locate(unit *models.SourceUnit, nameSuffix, baseMarkerSuffix, fallbackExclude string) (*models.Declaration, error) {
	for _, decl := range unit.Declarations {
		if strings.HasSuffix(decl.Name, nameSuffix) && !hasBaseSuffix(decl, baseMarkerSuffix) {
			return decl, nil
		}
	}
	for _, decl := range unit.Declarations {
		if !strings.Contains(decl.Name, fallbackExclude) && !hasBaseSuffix(decl, baseMarkerSuffix) {
			return decl, nil
		}
	}

	names := make([]string, 0, len(unit.Declarations))
	for _, decl := range unit.Declarations {
		names = append(names, decl.Name)
	}
	return nil, errors.NewNotFoundError("", names)
}

func hasBaseSuffix(decl *models.Declaration, suffix string) bool {
	if suffix == "" {
		return false
	}
	for _, base := range decl.BaseTypes {
		if strings.HasSuffix(base.Name, suffix) {
			return true
		}
	}
	return false
}
