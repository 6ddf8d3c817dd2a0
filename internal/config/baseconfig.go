// Package config implements the configuration model: root projects, app configs,
// library inheritance, forEach expansion, and the layered variable replacement maps
// the template engine consumes. Grounded on octoploy/config/{BaseConfig,AppConfig,Config}.py.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"github.com/octoploy/octoploy-go/internal/errs"
	"github.com/octoploy/octoploy-go/internal/valueloader"
)

// BaseConfig is embedded by RootConfig and AppConfig. It owns the raw vars/params
// declared in a config file and the external variables layered on top (forEach entries,
// or the owning project's own replacements for a freshly loaded app).
type BaseConfig struct {
	Path         string
	Vars         map[string]interface{}
	Params       []string
	ExternalVars map[string]interface{}

	replacements     map[string]interface{}
	replacementsDone bool
}

func readYAML(path string, out interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", errs.ErrNotFound, path)
		}
		return err
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %w", errs.ErrConfigError, path, err)
	}
	return nil
}

// ResolveFile implements valueloader.FileResolver: paths are resolved relative to the
// directory holding this config's own file, matching BaseConfig.get_file.
func (b *BaseConfig) ResolveFile(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join(filepath.Dir(b.Path), path), nil
}

// OwnReplacements expands vars (including {loader: ...} entries) and layers
// ExternalVars on top at the highest precedence within this config level. The result
// is memoized, matching BaseConfig.get_replacements's caching field.
func (b *BaseConfig) OwnReplacements() (map[string]interface{}, error) {
	if b.replacementsDone {
		return b.replacements, nil
	}
	result := map[string]interface{}{}
	for key, value := range b.Vars {
		m, isMap := value.(map[string]interface{})
		if !isMap {
			result[key] = value
			continue
		}
		loaderName, _ := m["loader"].(string)
		if loaderName == "" {
			result[key] = value
			continue
		}
		loader, err := valueloader.Create(loaderName)
		if err != nil {
			return nil, err
		}
		loaded, err := loader.Load(b, m)
		if err != nil {
			return nil, err
		}
		for suffix, val := range loaded {
			result[key+suffix] = val
		}
	}
	for k, v := range b.ExternalVars {
		result[k] = v
	}
	b.replacements = result
	b.replacementsDone = true
	return result, nil
}

// GetParams returns the declared required variable names.
func (b *BaseConfig) GetParams() []string {
	return b.Params
}

func mergeInto(dst map[string]interface{}, src map[string]interface{}) {
	for k, v := range src {
		dst[k] = v
	}
}
