// Package cluster abstracts the Kubernetes/OpenShift operations the render-and-reconcile
// pipeline needs, so the Reconciler and reload actions never talk to client-go directly.
package cluster

import (
	"context"

	"github.com/octoploy/octoploy-go/internal/k8sobj"
)

// API is the abstract cluster client the pipeline depends on. Two implementations exist:
// Dynamic (a real cluster, via client-go's dynamic client) and Fake (in-memory, for
// tests).
type API interface {
	// Get returns the live object identified by fqn in namespace, or nil if absent.
	Get(ctx context.Context, fqn, namespace string) (map[string]interface{}, error)
	// Apply server-side applies the given object's data into namespace.
	Apply(ctx context.Context, data map[string]interface{}, namespace string) error
	// Delete removes the object identified by fqn from namespace, swallowing NotFound.
	Delete(ctx context.Context, fqn, namespace string) error
	// Annotate sets (value != nil) or removes (value == nil) a single annotation.
	Annotate(ctx context.Context, fqn, namespace, key string, value *string) error
	// Rollout triggers a rolling restart of the named Deployment/DeploymentConfig.
	Rollout(ctx context.Context, kind, name, namespace string) error
	// GetPods lists the pod names belonging to the given DeploymentConfig/Deployment name.
	GetPods(ctx context.Context, dcName, namespace string) ([]string, error)
	// Exec runs command+args inside podName and returns combined stdout/stderr.
	Exec(ctx context.Context, podName string, command string, args []string, namespace string) (string, error)
	// SwitchContext changes the active kubeconfig context for subsequent calls.
	SwitchContext(ctx string) error
	// GetNamespaces lists every namespace visible to the current credentials.
	GetNamespaces(ctx context.Context) ([]string, error)
	// DryRun performs a server-side dry-run apply and returns the object the server
	// would produce, used for plan-mode diff rendering.
	DryRun(ctx context.Context, data map[string]interface{}, namespace string) (map[string]interface{}, error)
	// WaitReady blocks until every object in objs reaches kstatus.CurrentStatus or ctx's
	// deadline expires.
	WaitReady(ctx context.Context, objs []*k8sobj.Object) error
}
