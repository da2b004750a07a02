package dispatch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	contractx "github.com/krzycho/dbagent/agent/contract"
	registryx "github.com/krzycho/dbagent/agent/registry"
)

const schemaViolationPrefix = "schema violation: "

// IsSchemaViolation reports whether a result was rejected by argument
// validation rather than by the collaborator.
func IsSchemaViolation(r contractx.ExecutionResult) bool {
	return r.Status == contractx.ResultError && strings.HasPrefix(r.Detail, schemaViolationPrefix)
}

// Executor invokes the underlying collaborator for a validated tool call.
// A returned error means the collaborator failed; it is captured into the
// ExecutionResult and never propagated past the dispatcher.
type Executor func(ctx context.Context, tool string, args map[string]any) (any, error)

// Dispatcher validates actions against the registry and runs them.
type Dispatcher struct {
	registry *registryx.Registry
	exec     Executor
}

func New(registry *registryx.Registry, exec Executor) (*Dispatcher, error) {
	if registry == nil {
		return nil, fmt.Errorf("%w: registry is required", contractx.ErrValidation)
	}
	if exec == nil {
		return nil, fmt.Errorf("%w: executor is required", contractx.ErrValidation)
	}
	return &Dispatcher{registry: registry, exec: exec}, nil
}

// Invoke runs one action. The returned error is non-nil only for an
// unregistered tool, which is a controller-level bug. Argument schema
// violations and collaborator failures come back as error results; on the
// violation path the collaborator is never called.
func (d *Dispatcher) Invoke(ctx context.Context, action contractx.Action) (contractx.ExecutionResult, error) {
	desc, err := d.registry.Describe(action.Tool)
	if err != nil {
		return contractx.ExecutionResult{}, err
	}

	if err := validateArguments(desc, action.Arguments); err != nil {
		return contractx.ExecutionResult{
			Status: contractx.ResultError,
			Detail: schemaViolationPrefix + err.Error(),
		}, nil
	}

	payload, err := d.exec(ctx, action.Tool, action.Arguments)
	if err != nil {
		return contractx.ExecutionResult{
			Status: contractx.ResultError,
			Detail: err.Error(),
		}, nil
	}

	return contractx.ExecutionResult{
		Status:  contractx.ResultOK,
		Payload: payload,
	}, nil
}

func validateArguments(desc registryx.Descriptor, args map[string]any) error {
	for _, name := range sortedParamNames(desc) {
		spec := desc.Params[name]
		if !spec.Required {
			continue
		}
		if _, ok := args[name]; !ok {
			return fmt.Errorf("missing required argument %q", name)
		}
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		spec, ok := desc.Params[key]
		if !ok {
			return fmt.Errorf("unknown argument %q", key)
		}
		if !matchesParamType(spec.Type, args[key]) {
			return fmt.Errorf("argument %q must be %s", key, spec.Type)
		}
	}
	return nil
}

func sortedParamNames(desc registryx.Descriptor) []string {
	names := make([]string, 0, len(desc.Params))
	for name := range desc.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func matchesParamType(expected registryx.ParamType, value any) bool {
	switch expected {
	case registryx.ParamString:
		s, ok := value.(string)
		return ok && s != ""
	case registryx.ParamObject:
		switch value.(type) {
		case map[string]any, map[string]string:
			return true
		}
		return false
	case registryx.ParamArray:
		switch value.(type) {
		case []any, []string:
			return true
		}
		return false
	default:
		return true
	}
}
