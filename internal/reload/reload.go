// Package reload runs an app's on-config-change actions: either a rollout restart of
// its Deployment/DeploymentConfig, or an exec command in each of its pods. Grounded on
// octoploy/config/DeploymentActionConfig.py.
package reload

import (
	"context"
	"fmt"
	"strings"

	"github.com/octoploy/octoploy-go/internal/cluster"
	"github.com/octoploy/octoploy-go/internal/k8sobj"
	"github.com/octoploy/octoploy-go/internal/log"
)

var reloadLog = log.Named("reload")

// Action is one parsed on-config-change entry for an app.
type Action struct {
	// Deploy requests a rollout restart of the app's Deployment/DeploymentConfig.
	Deploy bool
	// ExecCommand and ExecArgs request running a command in every pod of the app
	// instead, when Deploy is false.
	ExecCommand string
	ExecArgs    []string
}

// ParseActions converts an AppConfig's raw on-config-change entries into Actions.
// Unrecognized entries are skipped with a warning.
func ParseActions(raw []interface{}) []Action {
	actions := make([]Action, 0, len(raw))
	for _, rawEntry := range raw {
		if s, ok := rawEntry.(string); ok {
			if s == "deploy" {
				actions = append(actions, Action{Deploy: true})
				continue
			}
			reloadLog.Warningf("unrecognized on-config-change entry: %q", s)
			continue
		}

		entry, ok := rawEntry.(map[string]interface{})
		if !ok {
			reloadLog.Warningf("unrecognized on-config-change entry: %v", rawEntry)
			continue
		}
		if execConfig, ok := entry["exec"].(map[string]interface{}); ok {
			cmd, _ := execConfig["command"].(string)
			args := stringSlice(execConfig["args"])
			actions = append(actions, Action{ExecCommand: cmd, ExecArgs: args})
			continue
		}
		reloadLog.Warningf("unrecognized on-config-change entry: %v", entry)
	}
	return actions
}

func stringSlice(v interface{}) []string {
	list, _ := v.([]interface{})
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Run executes action for appName, looking up its Deployment/DeploymentConfig (for a
// Deploy action) among bundleObjects, or listing pods by the app's name (for an exec
// action) in defaultNamespace.
func Run(ctx context.Context, api cluster.API, appName, defaultNamespace string, bundleObjects []*k8sobj.Object, action Action) error {
	if action.Deploy {
		target := findDeploymentObject(appName, bundleObjects)
		if target == nil {
			reloadLog.Warningf("deployment object %s not found", appName)
			return nil
		}
		if err := api.Rollout(ctx, target.Kind(), appName, target.Namespace()); err != nil {
			if strings.Contains(err.Error(), "(NotFound)") {
				reloadLog.Warningf("could not restart %s in %s: %v", appName, target.Namespace(), err)
				return nil
			}
			return fmt.Errorf("rolling out %s: %w", appName, err)
		}
		return nil
	}

	if action.ExecCommand != "" {
		reloadLog.Infof("reloading via exec in pods of %s", appName)
		pods, err := api.GetPods(ctx, appName, defaultNamespace)
		if err != nil {
			return fmt.Errorf("listing pods for %s: %w", appName, err)
		}
		for _, pod := range pods {
			if _, err := api.Exec(ctx, pod, action.ExecCommand, action.ExecArgs, defaultNamespace); err != nil {
				return fmt.Errorf("exec in pod %s: %w", pod, err)
			}
		}
	}
	return nil
}

func findDeploymentObject(name string, objects []*k8sobj.Object) *k8sobj.Object {
	for _, obj := range objects {
		if (obj.IsKind("Deployment") || obj.IsKind("DeploymentConfig")) && obj.Name() == name {
			return obj
		}
	}
	return nil
}
