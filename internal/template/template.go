// Package template implements variable substitution with parent/child processor chains
// and in-place "_merge" splicing. Grounded on octoploy/processing/TemplateProcessor.py.
package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/octoploy/octoploy-go/internal/errs"
	"github.com/octoploy/octoploy-go/internal/log"
	"github.com/octoploy/octoploy-go/internal/treewalker"
)

var templateLog = log.Named("template")

// Node is anything that contributes a replacement map and a list of required
// parameter names to a Processor: RootConfig and AppConfig both satisfy it.
type Node interface {
	Replacements() (map[string]interface{}, error)
	GetParams() []string
}

// Processor resolves variables across a chain of configs (lowest priority first) plus
// an optional set of CLI overrides (always highest priority), then applies that
// resolved map to a K8sObject's data tree.
type Processor struct {
	node      Node
	parent    *Processor
	child     *Processor
	overrides map[string]interface{}
}

// New creates a Processor wrapping a single config node.
func New(node Node) *Processor {
	return &Processor{node: node}
}

// SetParent wires parent as this processor's lower-priority predecessor in the chain.
func (p *Processor) SetParent(parent *Processor) {
	p.parent = parent
}

// SetChild wires child as a higher-priority successor: everything child resolves (its
// own chain and overrides included) overrides this processor's variables. child itself
// is left unchanged.
func (p *Processor) SetChild(child *Processor) {
	p.child = child
}

// SetOverrides installs variables supplied on the command line; they take precedence
// over every config in the chain.
func (p *Processor) SetOverrides(overrides map[string]interface{}) {
	p.overrides = overrides
}

// ResolveVariables gathers the replacement map across the full chain (root-most parent
// first, then this processor's own node, then its child's resolved map, then
// overrides), then iterates cross-variable substitution to a fixed point, and collects
// every params list declared anywhere in the chain.
func (p *Processor) ResolveVariables() (map[string]interface{}, []string, error) {
	var chain []*Processor
	for n := p; n != nil; n = n.parent {
		chain = append(chain, n)
	}

	result := map[string]interface{}{}
	var params []string
	for i := len(chain) - 1; i >= 0; i-- {
		own, err := chain[i].node.Replacements()
		if err != nil {
			return nil, nil, err
		}
		for k, v := range own {
			result[k] = v
		}
		params = append(params, chain[i].node.GetParams()...)
	}
	if p.child != nil {
		childVars, childParams, err := p.child.ResolveVariables()
		if err != nil {
			return nil, nil, err
		}
		for k, v := range childVars {
			result[k] = v
		}
		params = append(params, childParams...)
	}
	for k, v := range p.overrides {
		result[k] = v
	}

	resolveCrossReferences(result)
	return result, params, nil
}

// resolveCrossReferences repeatedly substitutes ${NAME} references found inside
// variable values themselves, until a pass makes no further change or a safety bound on
// iterations is reached (cyclic references are left partially resolved, not looped
// forever).
func resolveCrossReferences(vars map[string]interface{}) {
	for i := 0; i < 10; i++ {
		changed := false
		unresolved := map[string]bool{}
		for k, v := range vars {
			nv, err := substituteAny(v, vars, unresolved)
			if err != nil {
				continue
			}
			if !equalValues(nv, v) {
				vars[k] = nv
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

func equalValues(a, b interface{}) bool {
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr && bIsStr {
		return as == bs
	}
	return false
}

// Process renders data in place: leaf strings are substituted per the variable
// replacement rule, and "_merge" keys are spliced into their enclosing mapping as they
// are encountered. Any unresolved variable that is declared in a params list raises
// MissingParam; any other unresolved variable produces a warning and is left literal.
func Process(p *Processor, data map[string]interface{}) error {
	vars, params, err := p.ResolveVariables()
	if err != nil {
		return err
	}

	visitor := &substitutionVisitor{vars: vars, unresolved: map[string]bool{}}
	if _, err := visitor.VisitObject(data); err != nil {
		return err
	}
	if err := treewalker.Walk(visitor, data); err != nil {
		return err
	}

	var missing []string
	for name := range visitor.unresolved {
		if containsParam(params, name) {
			missing = append(missing, name)
		} else {
			templateLog.Warningf("variable %q is not defined, leaving it unresolved", name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", errs.ErrMissingParam, strings.Join(missing, ", "))
	}
	return nil
}

func containsParam(params []string, name string) bool {
	for _, p := range params {
		if p == name {
			return true
		}
	}
	return false
}

type substitutionVisitor struct {
	vars       map[string]interface{}
	unresolved map[string]bool
}

func (s *substitutionVisitor) VisitString(value string, _ map[string]interface{}, _ string) (interface{}, error) {
	return substituteLeaf(value, s.vars, s.unresolved)
}

// VisitObject splices "_merge" into its enclosing map, resolving the merge value's own
// variable references first (repeating until no "_merge" key remains at this level, so
// a merge value that itself contains another "_merge" key resolves fully).
func (s *substitutionVisitor) VisitObject(value map[string]interface{}) (map[string]interface{}, error) {
	for {
		raw, ok := value["_merge"]
		if !ok {
			return value, nil
		}
		delete(value, "_merge")

		resolved, err := substituteAny(raw, s.vars, s.unresolved)
		if err != nil {
			return nil, err
		}
		mergeMap, ok := resolved.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: _merge value did not resolve to a mapping", errs.ErrValueError)
		}
		for k, v := range mergeMap {
			value[k] = v
		}
	}
}

// substituteAny applies substituteLeaf to every string found within value, recursing
// into maps and lists.
func substituteAny(value interface{}, vars map[string]interface{}, unresolved map[string]bool) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return substituteLeaf(v, vars, unresolved)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			nv, err := substituteAny(val, vars, unresolved)
			if err != nil {
				return nil, err
			}
			out[k] = nv
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			nv, err := substituteAny(val, vars, unresolved)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	default:
		return value, nil
	}
}

// substituteLeaf implements the leaf-string substitution rule: "$$" is a literal "$",
// "${NAME}" is a variable reference, and an unclosed "$" or "${" is preserved literally.
// A string consisting of exactly one "${NAME}" reference is replaced by the variable's
// native value (type-preserving substitution); otherwise every reference is replaced by
// the value's string form, which is an error if the value isn't a scalar.
func substituteLeaf(value string, vars map[string]interface{}, unresolved map[string]bool) (interface{}, error) {
	if name, ok := wholeReference(value); ok {
		if v, found := lookup(vars, name, unresolved); found {
			return v, nil
		}
		return value, nil
	}

	var out strings.Builder
	i := 0
	for i < len(value) {
		c := value[i]
		if c != '$' {
			out.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(value) && value[i+1] == '$' {
			out.WriteByte('$')
			i += 2
			continue
		}
		if i+1 < len(value) && value[i+1] == '{' {
			end := strings.IndexByte(value[i+2:], '}')
			if end < 0 {
				out.WriteString(value[i:])
				break
			}
			name := value[i+2 : i+2+end]
			if v, found := lookup(vars, name, unresolved); found {
				str, err := stringForm(v)
				if err != nil {
					return nil, fmt.Errorf("%w: variable %q: %w", errs.ErrValueError, name, err)
				}
				out.WriteString(str)
			} else {
				out.WriteString(value[i : i+2+end+1])
			}
			i += 2 + end + 1
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String(), nil
}

func wholeReference(value string) (string, bool) {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return "", false
	}
	inner := value[2 : len(value)-1]
	if inner == "" || strings.ContainsAny(inner, "${}") {
		return "", false
	}
	return inner, true
}

func lookup(vars map[string]interface{}, name string, unresolved map[string]bool) (interface{}, bool) {
	v, ok := vars[name]
	if !ok {
		unresolved[name] = true
		return nil, false
	}
	return v, true
}

func stringForm(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("cannot substitute a non-scalar value into a string")
	}
}
