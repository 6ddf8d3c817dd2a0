// Package statemove implements the "state mv" CLI subcommand: renaming or relocating
// tracked state entries, optionally into a different ConfigMap. Grounded on
// octoploy/state/StateMover.py.
package statemove

import (
	"context"
	"fmt"
	"strings"

	"github.com/octoploy/octoploy-go/internal/cluster"
	"github.com/octoploy/octoploy-go/internal/errs"
	"github.com/octoploy/octoploy-go/internal/log"
	"github.com/octoploy/octoploy-go/internal/state"
)

var moveLog = log.Named("state")

// Move relocates every record in sourceStore whose key starts with source+"/" to a key
// with that prefix replaced by dest, then writes them into targetStore (which may be
// sourceStore itself for a same-ConfigMap rename) and removes them from sourceStore.
// source and dest must have the same "/"-depth, matching StateMover.move's sanity check.
func Move(sourceStore, targetStore *state.Store, source, dest string) (int, error) {
	if strings.Count(source, "/") != strings.Count(dest, "/") {
		return 0, fmt.Errorf("%w: source and destination point to different path depths", errs.ErrConfigError)
	}

	items := sourceStore.FindByPrefix(source)
	if len(items) == 0 {
		moveLog.Warningf("no items moved")
		return 0, nil
	}

	for _, rec := range items {
		oldKey := rec.Key()
		newKey := strings.Replace(oldKey, source, dest, 1)
		moveLog.Infof("moving %s to %s", oldKey, newKey)

		moved, err := parseKey(newKey)
		if err != nil {
			return 0, err
		}
		moved.Hash = rec.Hash
		moved.Visited = rec.Visited

		sourceStore.Remove(rec)
		targetStore.AddRecord(moved)
	}

	return len(items), nil
}

func parseKey(key string) (*state.ObjectState, error) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: malformed state key %q", errs.ErrConfigError, key)
	}
	return &state.ObjectState{Context: parts[0], Namespace: parts[1], FQN: parts[2]}, nil
}

// TargetForConfigMap resolves a "[namespace/]configmapSuffix" destination spec into a
// freshly restored Store and the namespace it lives in, matching
// StateMover._get_state_from_cm.
func TargetForConfigMap(ctx context.Context, api cluster.API, defaultNamespace, spec string) (*state.Store, string, error) {
	namespace := defaultNamespace
	suffix := spec
	if idx := strings.Index(spec, "/"); idx >= 0 {
		namespace = spec[:idx]
		suffix = spec[idx+1:]
	}

	store := state.New(api, suffix)
	if err := store.Restore(ctx, namespace); err != nil {
		return nil, "", err
	}
	return store, namespace, nil
}
