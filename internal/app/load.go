package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/specialistvlad/packgrid/internal/config"
	"github.com/specialistvlad/packgrid/internal/hcl"
	"github.com/specialistvlad/packgrid/internal/yamlconfig"
)

// LoaderFor selects the configuration loader by the file extension of path.
func LoaderFor(path string, env map[string]string) (config.Loader, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".hcl":
		return hcl.NewLoader(env), nil
	case ".yaml", ".yml":
		return yamlconfig.NewLoader(env), nil
	default:
		return nil, fmt.Errorf("unsupported configuration file %q: expected .hcl, .yaml or .yml", path)
	}
}
