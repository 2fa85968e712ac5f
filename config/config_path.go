package config

import (
	"path/filepath"

	"echodub/internal/appdirs"
)

const configFileName = "config.toml"

var resolveConfigPath = defaultResolveConfigPath

// ResolveConfigPath returns the location of the config file for this
// installation layout.
func ResolveConfigPath() (string, error) {
	return resolveConfigPath()
}

func defaultResolveConfigPath() (string, error) {
	dirs, err := appdirs.Resolve()
	if err != nil {
		return "", err
	}
	return filepath.Join(dirs.ConfigDir, configFileName), nil
}
