// Package valueloader implements the pluggable variable sources referenced from a
// vars entry shaped like {loader: <name>, ...}: env, file, and pem. pem is grounded on
// octoploy/processing/ValueLoader.py's PemLoader + ok8deploy/utils/Cert.py; env and
// file are named by the specification but have no original_source implementation, so
// they are built fresh in the same Loader shape.
package valueloader

import (
	"fmt"

	"github.com/octoploy/octoploy-go/internal/errs"
)

// FileResolver resolves a path that may be relative to the config file declaring it,
// the role BaseConfig.get_file plays for PemLoader in the original.
type FileResolver interface {
	ResolveFile(path string) (string, error)
}

// Loader produces a suffix->value map for a single {loader: name, ...} vars entry.
// Each entry is exposed in the replacement map as "<varName><suffix>"; suffix ""
// yields the bare variable name.
type Loader interface {
	Load(resolver FileResolver, data map[string]interface{}) (map[string]string, error)
}

// Create returns the Loader registered under name, or ConfigError if unknown.
func Create(name string) (Loader, error) {
	switch name {
	case "env":
		return EnvLoader{}, nil
	case "file":
		return FileLoader{}, nil
	case "pem":
		return PEMLoader{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown loader %q", errs.ErrConfigError, name)
	}
}

func stringField(data map[string]interface{}, key string) (string, bool) {
	v, ok := data[key].(string)
	return v, ok
}
