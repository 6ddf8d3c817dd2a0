package valueloader

import (
	"os"
	"strings"
)

// EnvLoader exposes every process environment variable. It ignores the loader's own
// data block - there are no recognized options for it.
type EnvLoader struct{}

func (EnvLoader) Load(_ FileResolver, _ map[string]interface{}) (map[string]string, error) {
	out := map[string]string{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		out[name] = value
	}
	return out, nil
}
