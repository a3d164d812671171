package cli

import (
	"gopkg.in/yaml.v3"

	"github.com/toyz/serupd/internal/errors"
	"github.com/toyz/serupd/internal/utils"
)

// WriteReport writes summary to path as YAML
func WriteReport(path string, summary *Summary) error {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return errors.WrapWithOperation("encode", "report", err)
	}
	return utils.NewSourceReader().WriteSource(path, data)
}
