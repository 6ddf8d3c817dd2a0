// Package yamlio loads multi-document YAML into generic maps and dumps documents back
// out, including the canonical form (sorted keys, quoted strings, block style) the
// reconciler hashes. It is the Go analogue of the original tool's YmlReader/YmlWriter,
// built on go.yaml.in/yaml/v3 rather than hand-rolled scanning.
package yamlio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"
)

// LoadAllDocs decodes every YAML document in r into a generic map. Empty documents
// (e.g. a trailing "---" with nothing after it) are skipped.
func LoadAllDocs(r io.Reader) ([]map[string]interface{}, error) {
	dec := yaml.NewDecoder(r)
	var docs []map[string]interface{}
	for {
		var doc map[string]interface{}
		err := dec.Decode(&doc)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if doc == nil {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LoadAllDocsFile reads and decodes every YAML document in the named file.
func LoadAllDocsFile(path string) ([]map[string]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadAllDocs(f)
}

// DumpAll writes docs to w as a multi-document YAML stream, in the given order.
func DumpAll(w io.Writer, docs []map[string]interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}
	return enc.Close()
}

// DumpCanonical renders v (normally a map[string]interface{} tree) with alphabetically
// sorted keys, every string double-quoted, and block style throughout. Reconciliation
// hashes this output, so the same logical document must always render byte-identical:
// this is why keys are sorted explicitly rather than relying on map iteration order.
func DumpCanonical(v interface{}) (string, error) {
	node, err := toCanonicalNode(v)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toCanonicalNode(v interface{}) (*yaml.Node, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range keys {
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k, Style: yaml.DoubleQuotedStyle}
			valNode, err := toCanonicalNode(val[k])
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, keyNode, valNode)
		}
		return node, nil
	case map[interface{}]interface{}:
		converted := make(map[string]interface{}, len(val))
		for k, v2 := range val {
			converted[fmt.Sprint(k)] = v2
		}
		return toCanonicalNode(converted)
	case []interface{}:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range val {
			itemNode, err := toCanonicalNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, itemNode)
		}
		return node, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: val, Style: yaml.DoubleQuotedStyle}, nil
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case bool:
		s := "false"
		if val {
			s = "true"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: s}, nil
	default:
		node := &yaml.Node{}
		if err := node.Encode(val); err != nil {
			return nil, err
		}
		return node, nil
	}
}
