package config

import (
	"os"
	"path/filepath"

	"github.com/octoploy/octoploy-go/internal/k8sobj"
)

// FileSpec names a file to embed as a ConfigMap data entry. Name overrides the entry's
// key; when empty, the file's base name is used instead.
type FileSpec struct {
	Path string `json:"file,omitempty"`
	Name string `json:"name,omitempty"`
}

// ConfigMapSpec declares a ConfigMap to be synthesized from one or more local files.
// Grounded on octoploy/config/DynamicConfigMap.py.
type ConfigMapSpec struct {
	Name              string     `json:"name,omitempty"`
	Files             []FileSpec `json:"files,omitempty"`
	DisableTemplating bool       `json:"disableTemplating,omitempty"`
}

// BuildObject reads every declared file relative to configRoot and assembles the
// resulting ConfigMap object. It returns whether templating should be skipped for the
// object's data values.
func (c ConfigMapSpec) BuildObject(configRoot string) (*k8sobj.Object, bool, error) {
	data := map[string]interface{}{}
	for _, f := range c.Files {
		path := f.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(configRoot, path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, false, err
		}
		key := f.Name
		if key == "" {
			key = filepath.Base(f.Path)
		}
		data[key] = string(content)
	}

	obj, err := k8sobj.New(map[string]interface{}{
		"kind":       "ConfigMap",
		"apiVersion": "v1",
		"metadata": map[string]interface{}{
			"name": c.Name,
		},
		"data": data,
	})
	if err != nil {
		return nil, false, err
	}
	return obj, c.DisableTemplating, nil
}
