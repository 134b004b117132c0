package graph

import (
	"encoding/json"
	"fmt"

	"github.com/google/cel-go/cel"
)

// CELPredicate compiles a CEL boolean expression into a Predicate[S]. State
// is exposed to the expression as a map[string]interface{} produced by a
// JSON round-trip (S must already be JSON-serializable for checkpointing, so
// this imposes no new requirement). Lets a workflow definition loaded from a
// JSON/YAML file author edge conditions as data instead of compiled Go
// closures.
//
// The expression must evaluate to a bool; any other result type, or a
// compile/type-check error, is returned immediately rather than deferred to
// evaluation time.
func CELPredicate[S any](expr string) (Predicate[S], error) {
	env, err := cel.NewEnv(cel.Variable("state", cel.DynType))
	if err != nil {
		return nil, fmt.Errorf("graph: CEL env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("graph: CEL compile %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("graph: CEL expression %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("graph: CEL program %q: %w", expr, err)
	}

	return func(state S) bool {
		asMap, err := stateToMap(state)
		if err != nil {
			return false
		}
		out, _, err := program.Eval(map[string]interface{}{"state": asMap})
		if err != nil {
			return false
		}
		result, ok := out.Value().(bool)
		return ok && result
	}, nil
}

func stateToMap(state any) (map[string]interface{}, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
