// Package tools defines the contracts and adapter registry for the tool
// invocations agents put into plan steps. The planner references the
// contracts when building plans, the executor validates parameters
// against them before dispatching to an adapter.
package tools

import (
	"context"
	"fmt"
)

// Adapter executes one named tool. Implementations live behind the
// registry so plans stay decoupled from concrete integrations.
type Adapter interface {
	Execute(ctx context.Context, params map[string]any) (map[string]any, error)
}

type AdapterFunc func(ctx context.Context, params map[string]any) (map[string]any, error)

func (f AdapterFunc) Execute(ctx context.Context, params map[string]any) (map[string]any, error) {
	return f(ctx, params)
}

type Parameter struct {
	Name        string
	Type        string // string, integer, object, array
	Description string
	Required    bool
	Enum        []string
}

// Contract describes a tool's parameter schema. Validate returns one
// violation string per problem; an empty slice means the call may be
// dispatched.
type Contract struct {
	Name         string
	Description  string
	Category     string
	Parameters   []Parameter
	OutputType   string // json, svg, markdown, docx, pptx, string
	RequiresAuth bool
	PrivacyLevel string // strict | standard | permissive
}

func (c *Contract) Validate(params map[string]any) []string {
	var violations []string

	for _, p := range c.Parameters {
		value, present := params[p.Name]

		if p.Required && !present {
			violations = append(violations, fmt.Sprintf("missing required parameter: %s", p.Name))
			continue
		}

		if len(p.Enum) > 0 && present {
			str := fmt.Sprint(value)
			allowed := false
			for _, e := range p.Enum {
				if str == e {
					allowed = true
					break
				}
			}
			if !allowed {
				violations = append(violations, fmt.Sprintf("parameter %q must be one of %v, got %q", p.Name, p.Enum, str))
			}
		}
	}

	return violations
}
