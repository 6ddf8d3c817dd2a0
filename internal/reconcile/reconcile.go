// Package reconcile implements the hash-diff reconciler: for each object in a finalized
// bundle, decide whether to create, adopt, no-op, or update it against the live cluster,
// and sweep state entries that were not visited this run. Grounded on
// octoploy/deploy/K8sObjectDeployer.py.
package reconcile

import (
	"context"
	"fmt"

	"github.com/octoploy/octoploy-go/internal/cluster"
	"github.com/octoploy/octoploy-go/internal/k8sobj"
	"github.com/octoploy/octoploy-go/internal/log"
	"github.com/octoploy/octoploy-go/internal/state"
)

var reconcileLog = log.Named("reconcile")

const legacyHashAnnotation = "yml-hash"

// Options carries the flags that change reconcile behavior without talking to the
// cluster.
type Options struct {
	// Plan renders the decision as a log line instead of performing it.
	Plan bool
}

// Result reports what Reconcile decided so the caller can trigger reload actions.
type Result struct {
	Applied          bool
	ConfigMapChanged bool
}

// Reconcile diffs obj against the live cluster and converges it, recording the outcome
// in store. appName is the state context key (normally the owning app's name).
func Reconcile(ctx context.Context, api cluster.API, store *state.Store, appName string, obj *k8sobj.Object, opts Options) (*Result, error) {
	hash, err := obj.Hash()
	if err != nil {
		return nil, err
	}

	live, err := api.Get(ctx, obj.FQN(), obj.Namespace())
	if err != nil {
		return nil, err
	}

	result := &Result{}

	switch {
	case live == nil:
		reconcileLog.Infof("creating %s/%s", obj.Namespace(), obj.FQN())
		if !opts.Plan {
			if err := api.Apply(ctx, obj.Data, obj.Namespace()); err != nil {
				return nil, err
			}
		}
		result.Applied = true

	default:
		storedHash, hasStored := storedHashFor(store, appName, obj, live)
		switch {
		case !hasStored:
			reconcileLog.Warningf("adopting existing object %s/%s without a prior recorded hash", obj.Namespace(), obj.FQN())
		case storedHash == hash:
			// no-op, still marked visited below
		default:
			reconcileLog.Infof("updating %s/%s", obj.Namespace(), obj.FQN())
			if opts.Plan {
				break
			}
			if err := api.Apply(ctx, obj.Data, obj.Namespace()); err != nil {
				return nil, err
			}
			if hasLegacyAnnotation(live) {
				if err := api.Annotate(ctx, obj.FQN(), obj.Namespace(), legacyHashAnnotation, nil); err != nil {
					return nil, err
				}
			}
			result.Applied = true
		}
	}

	store.Visit(appName, obj, hash)
	result.ConfigMapChanged = result.Applied && obj.IsKind("ConfigMap")
	return result, nil
}

func storedHashFor(store *state.Store, appName string, obj *k8sobj.Object, live map[string]interface{}) (string, bool) {
	if rec, ok := store.Get(appName, obj); ok {
		return rec.Hash, true
	}
	if h := legacyAnnotationValue(live); h != "" {
		return h, true
	}
	return "", false
}

func hasLegacyAnnotation(live map[string]interface{}) bool {
	return legacyAnnotationValue(live) != ""
}

func legacyAnnotationValue(live map[string]interface{}) string {
	metadata, _ := live["metadata"].(map[string]interface{})
	if metadata == nil {
		return ""
	}
	annotations, _ := metadata["annotations"].(map[string]interface{})
	if annotations == nil {
		return ""
	}
	v, _ := annotations[legacyHashAnnotation].(string)
	return v
}

// SweepOrphans deletes (or, in plan mode, logs) every state entry for appName that
// wasn't visited during this run, then removes it from the store.
func SweepOrphans(ctx context.Context, api cluster.API, store *state.Store, appName string, opts Options) error {
	for _, rec := range store.NotVisited(appName) {
		if opts.Plan {
			reconcileLog.Infof("would delete orphaned object %s", rec.FQN)
			continue
		}
		if err := api.Delete(ctx, rec.FQN, rec.Namespace); err != nil {
			return fmt.Errorf("deleting orphan %s: %w", rec.FQN, err)
		}
		store.Remove(rec)
	}
	return nil
}
