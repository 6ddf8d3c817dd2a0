// Package deploy orchestrates one app's render-and-reconcile pass: resolving template
// refs, loading yml files and extra configmaps, decrypting/preprocessing/namespacing
// every object, reconciling the finalized bundle against the cluster, sweeping orphans,
// and running reload actions when a ConfigMap changed. Grounded on
// octoploy/deploy/AppDeploy.py.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/octoploy/octoploy-go/internal/bundle"
	"github.com/octoploy/octoploy-go/internal/cluster"
	"github.com/octoploy/octoploy-go/internal/config"
	"github.com/octoploy/octoploy-go/internal/crypto"
	"github.com/octoploy/octoploy-go/internal/decrypt"
	"github.com/octoploy/octoploy-go/internal/errs"
	"github.com/octoploy/octoploy-go/internal/k8sobj"
	"github.com/octoploy/octoploy-go/internal/log"
	"github.com/octoploy/octoploy-go/internal/namespace"
	"github.com/octoploy/octoploy-go/internal/preprocess"
	"github.com/octoploy/octoploy-go/internal/reconcile"
	"github.com/octoploy/octoploy-go/internal/reload"
	"github.com/octoploy/octoploy-go/internal/state"
	"github.com/octoploy/octoploy-go/internal/template"
	"github.com/octoploy/octoploy-go/internal/yamlio"
)

var deployLog = log.Named("deploy")

// Options carries the run-wide flags that change how a deployment behaves, mirroring
// RunMode in the original.
type Options struct {
	// Plan renders and reconciles in dry-run: nothing is written to the cluster.
	Plan bool
	// OutFile, if set, receives every rendered object across the whole run (truncated
	// once at the start of the run, then appended to per app).
	OutFile string
	// Env holds CLI --env KEY=VALUE overrides, highest precedence in every template
	// resolution.
	Env map[string]interface{}
	// SkipSecrets and DeployPlainSecrets are forwarded to decrypt.Options.
	SkipSecrets        bool
	DeployPlainSecrets bool
}

// Runner deploys apps belonging to a single loaded project.
type Runner struct {
	root  *config.RootConfig
	api   cluster.API
	store *state.Store
	enc   *crypto.Encryptor
	opts  Options

	rootProcessor *template.Processor
}

// NewRunner builds a Runner for root, talking to the cluster through api and persisting
// state through store. Call Close when the run is finished to persist accumulated state.
func NewRunner(root *config.RootConfig, api cluster.API, store *state.Store, opts Options) *Runner {
	return &Runner{
		root:          root,
		api:           api,
		store:         store,
		enc:           crypto.NewEncryptor(),
		opts:          opts,
		rootProcessor: buildRootProcessor(root, opts.Env),
	}
}

// buildRootProcessor wires the project's own template processor with the inherited
// library project (if any) as its lower-priority parent, matching
// ProjectConfig.get_template_processor's library fallback.
func buildRootProcessor(root *config.RootConfig, overrides map[string]interface{}) *template.Processor {
	processor := template.New(root)
	if lib := root.Library(); lib != nil {
		libProcessor := template.New(lib)
		processor.SetParent(libProcessor)
	}
	processor.SetOverrides(overrides)
	return processor
}

// Close persists accumulated state to the project's namespace ConfigMap. Call it once,
// after every app in the run has been processed, mirroring the original's
// "state is stored in a finally block" policy.
func (r *Runner) Close(ctx context.Context) error {
	return r.store.Store(ctx, r.root.Namespace())
}

// TruncateOutFile removes any previously rendered output file at the start of a run, so
// repeated Deploy calls within the same run append rather than accumulate stale content.
func (r *Runner) TruncateOutFile() error {
	if r.opts.OutFile == "" {
		return nil
	}
	if _, err := os.Stat(r.opts.OutFile); err == nil {
		return os.Remove(r.opts.OutFile)
	}
	return nil
}

// DeployByName loads appName, expands its forEach instances, and deploys each.
func (r *Runner) DeployByName(ctx context.Context, appName string) error {
	app, err := r.root.LoadApp(appName)
	if err != nil {
		return err
	}
	instances, err := app.Expand()
	if err != nil {
		return err
	}
	for _, instance := range instances {
		if err := r.Deploy(ctx, instance); err != nil {
			return err
		}
	}
	return nil
}

// DeployAll deploys every enabled, non-template app in the project (and its library),
// expanding forEach instances.
func (r *Runner) DeployAll(ctx context.Context) error {
	apps, err := r.root.LoadAllApps()
	if err != nil {
		return err
	}
	for _, app := range apps {
		instances, err := app.Expand()
		if err != nil {
			return err
		}
		for _, instance := range instances {
			if err := r.Deploy(ctx, instance); err != nil {
				return err
			}
		}
	}
	return nil
}

// Deploy renders and reconciles a single app instance.
func (r *Runner) Deploy(ctx context.Context, app *config.AppConfig) error {
	if !app.Enabled() {
		return fmt.Errorf("%w: app %q is disabled", errs.ErrConfigError, app.Name())
	}
	if app.IsTemplate() {
		return fmt.Errorf("%w: app %q is a template and can't be deployed directly", errs.ErrConfigError, app.Name())
	}

	appProcessor := template.New(app)
	appProcessor.SetParent(r.rootProcessor)
	appProcessor.SetOverrides(r.opts.Env)

	b := bundle.New()
	skipped := make(map[*k8sobj.Object]bool)

	if err := r.applyTemplates(ctx, b, skipped, app.ApplyTemplates(), appProcessor); err != nil {
		return err
	}
	if err := r.loadFiles(ctx, b, skipped, app.Dir(), appProcessor); err != nil {
		return err
	}
	if err := r.loadExtraConfigMaps(ctx, b, skipped, app, appProcessor); err != nil {
		return err
	}
	if err := r.applyTemplates(ctx, b, skipped, app.PostApplyTemplates(), appProcessor); err != nil {
		return err
	}

	for obj := range skipped {
		r.store.VisitOnly(app.Name(), obj)
	}

	b.Finalize()

	if r.opts.OutFile != "" {
		if err := b.Dump(r.opts.OutFile); err != nil {
			return err
		}
	}

	if r.opts.Plan {
		deployLog.Infof("plan mode: would reconcile %d object(s) for %s", len(b.Objects), app.Name())
	}

	deployLog.Infof("checking %s", app.Name())
	configMapChanged := false
	for _, obj := range b.Objects {
		result, err := reconcile.Reconcile(ctx, r.api, r.store, app.Name(), obj, reconcile.Options{Plan: r.opts.Plan})
		if err != nil {
			return fmt.Errorf("reconciling %s: %w", obj.FQN(), err)
		}
		if result.ConfigMapChanged {
			configMapChanged = true
		}
	}

	if err := reconcile.SweepOrphans(ctx, r.api, r.store, app.Name(), reconcile.Options{Plan: r.opts.Plan}); err != nil {
		return fmt.Errorf("sweeping orphans for %s: %w", app.Name(), err)
	}

	if !r.opts.Plan {
		if err := r.api.WaitReady(ctx, b.Objects); err != nil {
			return fmt.Errorf("waiting for %s to become ready: %w", app.Name(), err)
		}
	}

	if configMapChanged && !r.opts.Plan {
		if err := r.runReloadActions(ctx, app, b.Objects); err != nil {
			return err
		}
	}

	return nil
}

// Reload renders appName's bundle (without reconciling it against the cluster) and runs
// its onConfigChange actions unconditionally, for the "reload <app>" CLI command that
// re-triggers a rollout/exec without a full deploy pass.
func (r *Runner) Reload(ctx context.Context, appName string) error {
	app, err := r.root.LoadApp(appName)
	if err != nil {
		return err
	}
	instances, err := app.Expand()
	if err != nil {
		return err
	}
	for _, instance := range instances {
		b, err := r.render(ctx, instance)
		if err != nil {
			return err
		}
		if err := r.runReloadActions(ctx, instance, b.Objects); err != nil {
			return err
		}
	}
	return nil
}

// render runs app through the same template/decrypt/preprocess/namespace pipeline as
// Deploy, without reconciling the result against the cluster.
func (r *Runner) render(ctx context.Context, app *config.AppConfig) (*bundle.AppBundle, error) {
	appProcessor := template.New(app)
	appProcessor.SetParent(r.rootProcessor)
	appProcessor.SetOverrides(r.opts.Env)

	b := bundle.New()
	skipped := make(map[*k8sobj.Object]bool)

	if err := r.applyTemplates(ctx, b, skipped, app.ApplyTemplates(), appProcessor); err != nil {
		return nil, err
	}
	if err := r.loadFiles(ctx, b, skipped, app.Dir(), appProcessor); err != nil {
		return nil, err
	}
	if err := r.loadExtraConfigMaps(ctx, b, skipped, app, appProcessor); err != nil {
		return nil, err
	}
	if err := r.applyTemplates(ctx, b, skipped, app.PostApplyTemplates(), appProcessor); err != nil {
		return nil, err
	}
	b.Finalize()
	return b, nil
}

// applyTemplates recursively merges in every named template app's rendered objects, a
// referenced template providing lower-priority defaults that the referencing processor
// (and, transitively, any closer template) overrides. A disabled template aborts the
// remaining siblings in the list, not just that one reference - this mirrors the
// original's early return and is preserved deliberately (see DESIGN.md).
func (r *Runner) applyTemplates(ctx context.Context, b *bundle.AppBundle, skipped map[*k8sobj.Object]bool, templateNames []string, processor *template.Processor) error {
	for _, name := range templateNames {
		tmpl, err := r.root.LoadApp(name)
		if err != nil {
			return err
		}
		if !tmpl.IsTemplate() {
			return fmt.Errorf("%w: referenced app %q is not declared as a template", errs.ErrConfigError, name)
		}
		if !tmpl.Enabled() {
			deployLog.Warningf("template %s is disabled, skipping", name)
			return nil
		}

		childProcessor := template.New(tmpl)
		childProcessor.SetChild(processor)

		if err := r.applyTemplates(ctx, b, skipped, tmpl.ApplyTemplates(), childProcessor); err != nil {
			return err
		}
		if err := r.loadFiles(ctx, b, skipped, tmpl.Dir(), childProcessor); err != nil {
			return err
		}
		if err := r.applyTemplates(ctx, b, skipped, tmpl.PostApplyTemplates(), childProcessor); err != nil {
			return err
		}
	}
	return nil
}

// loadFiles renders every top-level *.yml file in root (skipping files with a leading
// underscore, which are config files rather than manifests) and adds each document to b.
func (r *Runner) loadFiles(ctx context.Context, b *bundle.AppBundle, skipped map[*k8sobj.Object]bool, root string, processor *template.Processor) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yml") || strings.HasPrefix(name, "_") {
			continue
		}
		docs, err := yamlio.LoadAllDocsFile(filepath.Join(root, name))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		for _, doc := range docs {
			if err := r.renderObject(ctx, b, skipped, doc, processor); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) loadExtraConfigMaps(ctx context.Context, b *bundle.AppBundle, skipped map[*k8sobj.Object]bool, app *config.AppConfig, processor *template.Processor) error {
	for _, cm := range app.ConfigMaps() {
		obj, disableTemplating, err := cm.BuildObject(app.Dir())
		if err != nil {
			return err
		}
		used := processor
		if disableTemplating {
			used = nil
		}
		if err := r.finishObject(ctx, b, skipped, obj, used); err != nil {
			return err
		}
	}
	return nil
}

// renderObject wraps a raw decoded document and runs it through the full per-object
// pipeline: template substitution, decrypt, preprocess, namespace defaulting.
func (r *Runner) renderObject(ctx context.Context, b *bundle.AppBundle, skipped map[*k8sobj.Object]bool, data map[string]interface{}, processor *template.Processor) error {
	obj, err := k8sobj.New(data)
	if err != nil {
		return err
	}
	return r.finishObject(ctx, b, skipped, obj, processor)
}

func (r *Runner) finishObject(_ context.Context, b *bundle.AppBundle, skipped map[*k8sobj.Object]bool, obj *k8sobj.Object, processor *template.Processor) error {
	if processor != nil {
		if err := template.Process(processor, obj.Data); err != nil {
			return err
		}
		if err := obj.Refresh(); err != nil {
			return err
		}
	}

	decryptOpts := decrypt.Options{SkipSecrets: r.opts.SkipSecrets, DeployPlainSecrets: r.opts.DeployPlainSecrets}
	if err := decrypt.Process(r.enc, decryptOpts, obj); err != nil {
		if errors.Is(err, errs.ErrSkipObject) {
			deployLog.Warningf("skipping object %s: %v", obj.FQN(), err)
			if err := namespace.Process(r.root.Namespace(), obj); err != nil {
				return err
			}
			skipped[obj] = true
			return nil
		}
		return err
	}

	if err := preprocess.Process(r.root.Mode(), obj); err != nil {
		return err
	}
	if err := namespace.Process(r.root.Namespace(), obj); err != nil {
		return err
	}

	return b.Add(obj)
}

func (r *Runner) runReloadActions(ctx context.Context, app *config.AppConfig, objects []*k8sobj.Object) error {
	actions := reload.ParseActions(app.ReloadActions())
	for _, action := range actions {
		if err := reload.Run(ctx, r.api, app.Name(), r.root.Namespace(), objects, action); err != nil {
			return err
		}
	}
	return nil
}
