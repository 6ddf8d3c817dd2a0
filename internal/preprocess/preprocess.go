// Package preprocess rewrites legacy OpenShift DeploymentConfig objects into modern
// Deployment objects when the project targets a plain Kubernetes cluster. Grounded on
// octoploy/processing/PreProcessor.py's OcToK8PreProcessor.
package preprocess

import (
	"strings"

	"github.com/octoploy/octoploy-go/internal/k8sobj"
)

// Applies reports whether DeploymentConfig->Deployment rewriting applies for mode. Both
// "k8s" (the current spelling) and the legacy "k8" trigger it; "oc" passes through.
func Applies(mode string) bool {
	return mode == "k8s" || mode == "k8"
}

// Process rewrites obj in place if it is a DeploymentConfig and mode requires it.
// Non-DeploymentConfig objects and oc-mode projects are left untouched.
func Process(mode string, obj *k8sobj.Object) error {
	if !Applies(mode) || !obj.IsKind("DeploymentConfig") {
		return nil
	}

	obj.Data["kind"] = "Deployment"
	if apiVersion, _ := obj.Data["apiVersion"].(string); !strings.HasPrefix(apiVersion, "apps/") {
		obj.Data["apiVersion"] = "apps/v1"
	}

	spec, _ := obj.Data["spec"].(map[string]interface{})
	if spec == nil {
		return obj.Refresh()
	}

	if selector, ok := spec["selector"].(map[string]interface{}); ok {
		if name, ok := selector["name"]; ok {
			delete(selector, "name")
			selector["matchLabels"] = map[string]interface{}{"app": name}
		}
	}

	if strategy, ok := spec["strategy"].(map[string]interface{}); ok {
		if t, _ := strategy["type"].(string); t == "Rolling" {
			strategy["type"] = "RollingUpdate"
		}
	}

	if tmpl, ok := spec["template"].(map[string]interface{}); ok {
		if metadata, ok := tmpl["metadata"].(map[string]interface{}); ok {
			if labels, ok := metadata["labels"].(map[string]interface{}); ok {
				if name, ok := labels["name"]; ok {
					delete(labels, "name")
					labels["app"] = name
				}
			}
		}
	}

	return obj.Refresh()
}
