package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/octoploy/octoploy-go/internal/errs"
	"github.com/octoploy/octoploy-go/internal/log"
)

var rootLog = log.Named("config")

// RootConfigData is the decoded shape of a project's _root.yml.
type RootConfigData struct {
	Project   string                 `json:"project,omitempty"`
	Namespace string                 `json:"namespace,omitempty"`
	Context   string                 `json:"context,omitempty"`
	Mode      string                 `json:"mode,omitempty"`
	Type      string                 `json:"type,omitempty"`
	Inherit   string                 `json:"inherit,omitempty"`
	StateName string                 `json:"stateName,omitempty"`
	Vars      map[string]interface{} `json:"vars,omitempty"`
	Params    []string               `json:"params,omitempty"`
}

// RootConfig is a loaded project: its own _root.yml plus, optionally, an inherited
// library project reached through Inherit. Grounded on octoploy/config/Config.py's
// ProjectConfig.
type RootConfig struct {
	BaseConfig
	data    RootConfigData
	dir     string
	library *RootConfig
}

// LoadRoot loads the project rooted at dir (the directory holding _root.yml), following
// an Inherit reference to a library project if one is declared.
func LoadRoot(dir string) (*RootConfig, error) {
	path := filepath.Join(dir, "_root.yml")
	var data RootConfigData
	if err := readYAML(path, &data); err != nil {
		return nil, err
	}

	root := &RootConfig{
		BaseConfig: BaseConfig{Path: path, Vars: data.Vars, Params: data.Params},
		data:       data,
		dir:        dir,
	}

	if data.Inherit != "" {
		libDir := data.Inherit
		if !filepath.IsAbs(libDir) {
			libDir = filepath.Join(dir, libDir)
		}
		lib, err := LoadRoot(libDir)
		if err != nil {
			return nil, fmt.Errorf("loading library %q: %w", data.Inherit, err)
		}
		if !lib.IsLibrary() {
			return nil, fmt.Errorf("%w: %q is not declared as a library project (type: library)", errs.ErrConfigError, libDir)
		}
		root.library = lib
	}

	return root, nil
}

// IsLibrary reports whether this project is itself usable as a library (type: library).
func (r *RootConfig) IsLibrary() bool {
	return r.data.Type == "library"
}

// Library returns the inherited library project, or nil if none is configured.
func (r *RootConfig) Library() *RootConfig {
	return r.library
}

// Dir returns the directory this project was loaded from.
func (r *RootConfig) Dir() string {
	return r.dir
}

// Mode returns the project mode (oc, k8s, k8), defaulting to k8s.
func (r *RootConfig) Mode() string {
	switch r.data.Mode {
	case "oc", "k8s", "k8":
		return r.data.Mode
	default:
		return "k8s"
	}
}

// Context returns the kubeconfig context to switch to before deploying, if any.
func (r *RootConfig) Context() string {
	return r.data.Context
}

// StateSuffix returns the suffix to append to the state ConfigMap's name, if configured.
func (r *RootConfig) StateSuffix() string {
	return r.data.StateName
}

// Namespace resolves the project's target namespace, preferring the namespace key over
// the legacy project key. Using only the legacy key logs a deprecation warning.
func (r *RootConfig) Namespace() string {
	if r.data.Namespace != "" {
		return r.data.Namespace
	}
	if r.data.Project != "" {
		rootLog.Warningf("_root.yml at %s uses the legacy \"project\" key; rename it to \"namespace\"", r.dir)
		return r.data.Project
	}
	return ""
}

// Replacements returns this project's own variable map (vars + loader expansions +
// externally injected vars) plus NAMESPACE/OC_PROJECT aliases. It deliberately does not
// fold in the library's variables: those are merged by a separate template processor
// chain, not here, matching ProjectConfig.get_template_processor's parent/child wiring.
func (r *RootConfig) Replacements() (map[string]interface{}, error) {
	own, err := r.OwnReplacements()
	if err != nil {
		return nil, err
	}
	result := map[string]interface{}{}
	mergeInto(result, own)
	if ns := r.Namespace(); ns != "" {
		result["NAMESPACE"] = ns
		result["OC_PROJECT"] = ns
	}
	return result, nil
}

// LoadApp loads a single app by directory name, falling back to the library project if
// the app isn't found locally. Matches ProjectConfig.load_app_config.
func (r *RootConfig) LoadApp(name string) (*AppConfig, error) {
	appDir := filepath.Join(r.dir, name)
	info, statErr := os.Stat(appDir)
	if statErr != nil || !info.IsDir() {
		if r.library != nil {
			return r.library.LoadApp(name)
		}
		return nil, fmt.Errorf("%w: app %q not found under %s", errs.ErrNotFound, name, r.dir)
	}

	indexPath := filepath.Join(appDir, "_index.yml")
	if _, err := os.Stat(indexPath); err != nil {
		return nil, fmt.Errorf("%w: app %q has no _index.yml", errs.ErrNotFound, name)
	}

	var data AppConfigData
	if err := readYAML(indexPath, &data); err != nil {
		return nil, err
	}

	variables, err := r.Replacements()
	if err != nil {
		return nil, err
	}

	return &AppConfig{
		BaseConfig: BaseConfig{Path: indexPath, Vars: data.Vars, Params: data.Params, ExternalVars: variables},
		data:       data,
		dir:        appDir,
		root:       r,
	}, nil
}

// LoadAllApps loads every enabled, non-template app directly under this project, then
// appends the library's own apps (if any). Folders missing _index.yml, disabled apps,
// and template apps are skipped silently, matching ProjectConfig.load_app_configs.
func (r *RootConfig) LoadAllApps() ([]*AppConfig, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, err
	}

	var apps []*AppConfig
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		app, err := r.LoadApp(entry.Name())
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if !app.Enabled() || app.IsTemplate() {
			continue
		}
		apps = append(apps, app)
	}

	if r.library != nil {
		libApps, err := r.library.LoadAllApps()
		if err != nil {
			return nil, err
		}
		apps = append(apps, libApps...)
	}

	return apps, nil
}
