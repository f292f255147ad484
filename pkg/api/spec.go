package api

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawSpec []byte

// RawSpec returns a copy of the embedded OpenAPI document.
func RawSpec() []byte {
	out := make([]byte, len(rawSpec))
	copy(out, rawSpec)
	return out
}

// GetSwagger parses the embedded OpenAPI document. Each call returns a new
// document, so callers may modify it.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("load embedded OpenAPI document: %w", err)
	}
	return doc, nil
}

// Operation describes one endpoint of the embedded document.
type Operation struct {
	Method  string
	Path    string
	ID      string
	Summary string
}

// Operations lists the endpoints of the embedded document sorted by path
// and method.
func Operations() ([]Operation, error) {
	doc, err := GetSwagger()
	if err != nil {
		return nil, err
	}

	var ops []Operation
	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			ops = append(ops, Operation{
				Method:  strings.ToUpper(method),
				Path:    path,
				ID:      op.OperationID,
				Summary: op.Summary,
			})
		}
	}

	sort.Slice(ops, func(i, j int) bool {
		if ops[i].Path != ops[j].Path {
			return ops[i].Path < ops[j].Path
		}
		return ops[i].Method < ops[j].Method
	})
	return ops, nil
}
