package config

import (
	"fmt"

	"github.com/octoploy/octoploy-go/internal/errs"
)

// legacyDC carries the deprecated nested dc.name field some index files still use.
type legacyDC struct {
	Name string `json:"name,omitempty"`
}

// AppConfigData is the decoded shape of an app's _index.yml.
type AppConfigData struct {
	Name               string                   `json:"name,omitempty"`
	Enabled            *bool                    `json:"enabled,omitempty"`
	Type               string                   `json:"type,omitempty"`
	ApplyTemplates     []string                 `json:"applyTemplates,omitempty"`
	PostApplyTemplates []string                 `json:"postApplyTemplates,omitempty"`
	ConfigMaps         []ConfigMapSpec          `json:"configMaps,omitempty"`
	OnConfigChange     []interface{}            `json:"on-config-change,omitempty"`
	ForEach            []map[string]interface{} `json:"forEach,omitempty"`
	Vars               map[string]interface{}   `json:"vars,omitempty"`
	Params             []string                 `json:"params,omitempty"`
	DC                 *legacyDC                `json:"dc,omitempty"`
}

// AppConfig is a single loaded application. Grounded on octoploy/config/AppConfig.py.
type AppConfig struct {
	BaseConfig
	data AppConfigData
	dir  string
	root *RootConfig
}

// GetRoot returns the project this app belongs to.
func (a *AppConfig) GetRoot() *RootConfig {
	return a.root
}

// Dir returns the app's own directory.
func (a *AppConfig) Dir() string {
	return a.dir
}

// Name resolves the app's name, falling back to the legacy nested dc.name field.
func (a *AppConfig) Name() string {
	if a.data.Name != "" {
		return a.data.Name
	}
	if a.data.DC != nil {
		return a.data.DC.Name
	}
	return ""
}

// Enabled defaults to true; only an explicit "enabled: false" disables the app.
func (a *AppConfig) Enabled() bool {
	return a.data.Enabled == nil || *a.data.Enabled
}

// IsTemplate reports whether this app exists only to be referenced by applyTemplates,
// not deployed on its own.
func (a *AppConfig) IsTemplate() bool {
	return a.data.Type == "template"
}

// ApplyTemplates returns the template app names merged before this app's own objects.
func (a *AppConfig) ApplyTemplates() []string {
	return a.data.ApplyTemplates
}

// PostApplyTemplates returns the template app names merged after this app's own objects.
func (a *AppConfig) PostApplyTemplates() []string {
	return a.data.PostApplyTemplates
}

// ConfigMaps returns the dynamically generated ConfigMap specs declared for this app.
func (a *AppConfig) ConfigMaps() []ConfigMapSpec {
	return a.data.ConfigMaps
}

// ReloadActions returns the raw onConfigChange entries (each either the bare string
// "deploy" or a {exec: {command, args}} map); internal/reload parses them into concrete
// actions.
func (a *AppConfig) ReloadActions() []interface{} {
	return a.data.OnConfigChange
}

// Replacements returns this app's own variable map plus APP_NAME/DC_NAME aliases,
// matching AppConfig.get_replacements.
func (a *AppConfig) Replacements() (map[string]interface{}, error) {
	own, err := a.OwnReplacements()
	if err != nil {
		return nil, err
	}
	result := map[string]interface{}{}
	mergeInto(result, own)
	if name := a.Name(); name != "" {
		result["APP_NAME"] = name
		result["DC_NAME"] = name
	}
	return result, nil
}

// Expand produces one AppConfig per forEach entry, or []*AppConfig{a} unchanged if the
// app declares no forEach list. Each instance shares the parent's own data (vars,
// params, configmaps, applyTemplates, onConfigChange) but its external variables are
// replaced wholesale by the forEach entry's own key/value pairs, and its name is
// overridden by the entry's required APP_NAME. Grounded on AppConfig.get_for_each.
func (a *AppConfig) Expand() ([]*AppConfig, error) {
	if len(a.data.ForEach) == 0 {
		return []*AppConfig{a}, nil
	}

	instances := make([]*AppConfig, 0, len(a.data.ForEach))
	for _, entry := range a.data.ForEach {
		appName, _ := entry["APP_NAME"].(string)
		if appName == "" {
			return nil, fmt.Errorf("%w: forEach entry for app %q is missing APP_NAME", errs.ErrMissingVar, a.Name())
		}

		externalVars := map[string]interface{}{}
		mergeInto(externalVars, entry)

		instanceData := a.data
		instanceData.Name = appName
		instanceData.DC = nil

		instances = append(instances, &AppConfig{
			BaseConfig: BaseConfig{
				Path:         a.Path,
				Vars:         instanceData.Vars,
				Params:       instanceData.Params,
				ExternalVars: externalVars,
			},
			data: instanceData,
			dir:  a.dir,
			root: a.root,
		})
	}
	return instances, nil
}
