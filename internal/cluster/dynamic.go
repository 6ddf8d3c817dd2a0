package cluster

import (
	"bytes"
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/remotecommand"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/octoploy/octoploy-go/internal/errs"
)

// fieldManager identifies every write this tool makes during server-side apply.
const fieldManager = "octoploy"

// Dynamic implements API against a real cluster using client-go's dynamic client and a
// deferred discovery REST mapper, writing objects with server-side apply.
type Dynamic struct {
	loadingRules *clientcmd.ClientConfigLoadingRules
	overrides    *clientcmd.ConfigOverrides

	restConfig *rest.Config
	dyn        dynamic.Interface
	clientset  kubernetes.Interface
	mapper     *restmapper.DeferredDiscoveryRESTMapper
	crClient   ctrlclient.Reader
}

// NewDynamic builds a cluster client from the default kubeconfig loading rules,
// optionally pinned to contextName (empty uses the current context).
func NewDynamic(contextName string) (*Dynamic, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	overrides := &clientcmd.ConfigOverrides{}
	if contextName != "" {
		overrides.CurrentContext = contextName
	}

	d := &Dynamic{loadingRules: loadingRules, overrides: overrides}
	if err := d.connect(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dynamic) connect() error {
	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(d.loadingRules, d.overrides)
	cfg, err := clientConfig.ClientConfig()
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}

	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}
	disc, err := discovery.NewDiscoveryClientForConfig(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}

	runtimeScheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(runtimeScheme); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}
	crClient, err := ctrlclient.New(cfg, ctrlclient.Options{Scheme: runtimeScheme})
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}

	d.restConfig = cfg
	d.dyn = dyn
	d.clientset = clientset
	d.mapper = restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(disc))
	d.crClient = crClient
	return nil
}

func (d *Dynamic) resourceFor(kind, namespace string) (dynamic.ResourceInterface, error) {
	gk := schema.ParseGroupKind(kind)
	m, err := d.mapper.RESTMapping(gk)
	if err != nil {
		d.mapper.Reset()
		m, err = d.mapper.RESTMapping(gk)
		if err != nil {
			return nil, fmt.Errorf("%w: could not map kind %q: %w", errs.ErrClusterError, kind, err)
		}
	}
	if m.Scope.Name() == meta.RESTScopeNameNamespace {
		return d.dyn.Resource(m.Resource).Namespace(namespace), nil
	}
	return d.dyn.Resource(m.Resource), nil
}

// fqnKind extracts the "Kind" or "Kind.Group" portion of an FQN ("Kind.Group/Name" or
// "Kind/Name"), suitable for schema.ParseGroupKind.
func fqnKind(fqn string) (kind string) {
	for i, c := range fqn {
		if c == '/' {
			return fqn[:i]
		}
	}
	return fqn
}

func fqnName(fqn string) string {
	for i := len(fqn) - 1; i >= 0; i-- {
		if fqn[i] == '/' {
			return fqn[i+1:]
		}
	}
	return fqn
}

func (d *Dynamic) Get(ctx context.Context, fqn, namespace string) (map[string]interface{}, error) {
	res, err := d.resourceFor(fqnKind(fqn), namespace)
	if err != nil {
		return nil, err
	}
	obj, err := res.Get(ctx, fqnName(fqn), metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}
	return obj.Object, nil
}

func (d *Dynamic) Apply(ctx context.Context, data map[string]interface{}, namespace string) error {
	u := &unstructured.Unstructured{Object: data}
	kind := u.GetKind()
	res, err := d.resourceFor(kind, namespace)
	if err != nil {
		return err
	}
	_, err = res.Apply(ctx, u.GetName(), u, metav1.ApplyOptions{FieldManager: fieldManager, Force: true})
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}
	return nil
}

func (d *Dynamic) Delete(ctx context.Context, fqn, namespace string) error {
	res, err := d.resourceFor(fqnKind(fqn), namespace)
	if err != nil {
		return err
	}
	err = res.Delete(ctx, fqnName(fqn), metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}
	return nil
}

func (d *Dynamic) Annotate(ctx context.Context, fqn, namespace, key string, value *string) error {
	res, err := d.resourceFor(fqnKind(fqn), namespace)
	if err != nil {
		return err
	}

	var patch []byte
	if value == nil {
		patch = []byte(fmt.Sprintf(`{"metadata":{"annotations":{%q:null}}}`, key))
	} else {
		patch = []byte(fmt.Sprintf(`{"metadata":{"annotations":{%q:%q}}}`, key, *value))
	}

	_, err = res.Patch(ctx, fqnName(fqn), types.MergePatchType, patch, metav1.PatchOptions{FieldManager: fieldManager})
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}
	return nil
}

func (d *Dynamic) Rollout(ctx context.Context, kind, name, namespace string) error {
	res, err := d.resourceFor(kind, namespace)
	if err != nil {
		return err
	}
	patch := []byte(fmt.Sprintf(
		`{"spec":{"template":{"metadata":{"annotations":{"octoploy.io/restartedAt":%q}}}}}`,
		restartTimestamp(),
	))
	_, err = res.Patch(ctx, name, types.MergePatchType, patch, metav1.PatchOptions{FieldManager: fieldManager})
	if err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}
	return nil
}

type outputBuffer struct {
	bytes.Buffer
}

// restartTimestamp stamps the current wall-clock time in UTC. It is a package variable
// so it can be replaced.
var restartTimestamp = func() string {
	return metav1.Now().UTC().Format("2006-01-02T15:04:05Z")
}

func (d *Dynamic) GetPods(ctx context.Context, dcName, namespace string) ([]string, error) {
	pods, err := d.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: "app=" + dcName,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}
	names := make([]string, 0, len(pods.Items))
	for _, p := range pods.Items {
		names = append(names, p.Name)
	}
	return names, nil
}

func (d *Dynamic) Exec(ctx context.Context, podName, command string, args []string, namespace string) (string, error) {
	req := d.clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(podName).
		Namespace(namespace).
		SubResource("exec")

	req.VersionedParams(&corev1.PodExecOptions{
		Command: append([]string{command}, args...),
		Stdout:  true,
		Stderr:  true,
	}, clientgoscheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(d.restConfig, "POST", req.URL())
	if err != nil {
		return "", fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}

	var out outputBuffer
	err = exec.StreamWithContext(ctx, remotecommand.StreamOptions{Stdout: &out, Stderr: &out})
	if err != nil {
		return out.String(), fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}
	return out.String(), nil
}

func (d *Dynamic) SwitchContext(ctx string) error {
	d.overrides.CurrentContext = ctx
	return d.connect()
}

func (d *Dynamic) GetNamespaces(ctx context.Context) ([]string, error) {
	list, err := d.clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}
	names := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		names = append(names, ns.Name)
	}
	return names, nil
}

func (d *Dynamic) DryRun(ctx context.Context, data map[string]interface{}, namespace string) (map[string]interface{}, error) {
	u := &unstructured.Unstructured{Object: data}
	res, err := d.resourceFor(u.GetKind(), namespace)
	if err != nil {
		return nil, err
	}
	result, err := res.Apply(ctx, u.GetName(), u, metav1.ApplyOptions{
		FieldManager: fieldManager,
		Force:        true,
		DryRun:       []string{metav1.DryRunAll},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrClusterError, err)
	}
	return result.Object, nil
}
