package valueloader

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/octoploy/octoploy-go/internal/errs"
)

// FileLoader reads a file's contents, optionally base64-encoding them, and exposes the
// whole thing as the bare variable name (suffix ""). data recognizes "file" (required),
// "encoding" (ignored beyond utf-8, the only text encoding this port supports), and
// "conversion" ("base64" or unset).
type FileLoader struct{}

func (FileLoader) Load(resolver FileResolver, data map[string]interface{}) (map[string]string, error) {
	file, ok := stringField(data, "file")
	if !ok || file == "" {
		return nil, fmt.Errorf("%w: file loader requires a \"file\" entry", errs.ErrConfigError)
	}
	resolved, err := resolver.ResolveFile(file)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrConfigError, err)
	}

	conversion, _ := stringField(data, "conversion")
	text := string(content)
	if conversion == "base64" {
		text = base64.StdEncoding.EncodeToString(content)
	}
	return map[string]string{"": text}, nil
}
