// Package parser decodes manifest pointer files: small YAML documents that name
// a target path plus optional display metadata.
//
// A manifest may be fenced with "---" lines, written as bare YAML, or consist
// of nothing but the target path on its first non-empty line.
package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// Result holds the output of parsing a manifest pointer file.
type Result struct {
	Target      string `yaml:"target"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Arguments   string `yaml:"arguments"`
	Icon        string `yaml:"icon"`
}

// Parse extracts the target and metadata from raw manifest bytes. A manifest
// without a recognisable target yields a Result with an empty Target and no
// error; callers decide how to treat it.
func Parse(data []byte) (*Result, error) {
	block := stripFences(data)

	var res Result
	if err := yaml.Unmarshal(block, &res); err == nil {
		res.Target = strings.TrimSpace(res.Target)
		res.Name = strings.TrimSpace(res.Name)
		return &res, nil
	}

	// Not a mapping: fall back to the plain one-line form.
	return &Result{Target: firstLine(block)}, nil
}

// stripFences returns the YAML between leading "---" delimiters, or data
// unchanged when no opening fence is present.
func stripFences(data []byte) []byte {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r\ufeff")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return trimmed
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter: everything after the opening fence.
		return rest
	}
	return rest[:idx]
}

func firstLine(data []byte) string {
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return trimmed
	}
	return ""
}
