package valueloader

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/octoploy/octoploy-go/internal/errs"
)

// PEMLoader splits a PEM file into its first certificate, its private key, and any
// further certificates (concatenated as intermediates). Grounded on ok8deploy/utils/Cert.py's
// line-buffer state machine.
type PEMLoader struct{}

func (PEMLoader) Load(resolver FileResolver, data map[string]interface{}) (map[string]string, error) {
	file, ok := stringField(data, "file")
	if !ok || file == "" {
		return nil, fmt.Errorf("%w: pem loader requires a \"file\" entry", errs.ErrConfigError)
	}
	resolved, err := resolver.ResolveFile(file)
	if err != nil {
		return nil, err
	}
	cert, key, cacerts, err := parsePEM(resolved)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"_PUBLIC": cert,
		"_KEY":    key,
		"_CACERT": strings.Join(cacerts, ""),
	}, nil
}

const (
	modeNone = iota
	modeCert
	modeKey
)

func parsePEM(path string) (cert, key string, cacerts []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %w", errs.ErrConfigError, err)
	}
	defer f.Close()

	var buffer strings.Builder
	mode := modeNone

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text() + "\n"

		if strings.Contains(line, "-BEGIN CERTIFICATE-") {
			buffer.Reset()
			buffer.WriteString(line)
			mode = modeCert
			continue
		}
		if strings.Contains(line, "-BEGIN PRIVATE KEY-") {
			buffer.Reset()
			buffer.WriteString(line)
			mode = modeKey
			continue
		}
		if mode == modeNone {
			continue
		}

		buffer.WriteString(line)
		if mode == modeKey && strings.Contains(line, "-END PRIVATE KEY-") {
			key = buffer.String()
			mode = modeNone
			continue
		}
		if mode == modeCert && strings.Contains(line, "-END CERTIFICATE-") {
			if cert == "" {
				cert = buffer.String()
				continue
			}
			cacerts = append(cacerts, buffer.String())
			mode = modeNone
		}
	}
	if err := scanner.Err(); err != nil {
		return "", "", nil, fmt.Errorf("%w: %w", errs.ErrConfigError, err)
	}
	return cert, key, cacerts, nil
}
