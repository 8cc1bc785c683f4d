// Package policy evaluates the access-control authorization rules through an
// embedded rego policy, keeping the decision logic out of the handlers.
package policy

import (
	"context"
	_ "embed"
	"errors"

	"github.com/open-policy-agent/opa/rego"

	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
)

//go:embed access.rego
var accessPolicy string

const defaultQuery = "data.cyberhope.access.allow"

// Engine wraps a prepared rego query over the embedded access policy.
type Engine struct {
	query rego.PreparedEvalQuery
}

func NewEngine(ctx context.Context) (*Engine, error) {
	prepared, err := rego.New(
		rego.Query(defaultQuery),
		rego.Module("access.rego", accessPolicy),
		rego.StrictBuiltinErrors(true),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	return &Engine{query: prepared}, nil
}

// Authorize returns nil when caller may perform action on a record held by
// owner, evidence.ErrForbidden otherwise. Addresses are normalized before
// evaluation so the policy compares canonical identities.
func (e *Engine) Authorize(ctx context.Context, action, caller, owner string) error {
	if e == nil {
		return errors.New("policy engine is nil")
	}

	input := map[string]any{
		"action": action,
		"caller": evidence.NormalizeAddress(caller),
		"owner":  evidence.NormalizeAddress(owner),
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return errors.New("empty policy result")
	}
	allowed, ok := results[0].Expressions[0].Value.(bool)
	if !ok {
		return errors.New("policy result is not a boolean")
	}
	if !allowed {
		return evidence.ErrForbidden
	}
	return nil
}
