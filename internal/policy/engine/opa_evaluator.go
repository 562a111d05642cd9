package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	userdomain "tenant-auth-core/internal/user/domain"
)

const authzQuery = "data.tenantauth.authz.allow"

// Default Rego policy: flat role membership, no hierarchy. An admin is not
// implicitly a manager; a caller that wants both lists both.
const defaultRegoPolicy = `package tenantauth.authz

default allow := false

allow if {
	input.user.active
	input.user.role in input.required_roles
}
`

// OPAEvaluator evaluates role authorization using OPA Rego.
type OPAEvaluator struct {
	compiler *ast.Compiler
}

// NewOPAEvaluator returns an OPA-based evaluator with the default policy
// compiled once at construction.
func NewOPAEvaluator() (*OPAEvaluator, error) {
	modules := map[string]string{"authz.rego": defaultRegoPolicy}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return nil, fmt.Errorf("compile authz policy: %w", err)
	}
	return &OPAEvaluator{compiler: compiler}, nil
}

// HealthCheck verifies that the in-process OPA Rego engine can evaluate the
// compiled policy. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	minimalInput := map[string]interface{}{
		"user":           map[string]interface{}{"role": "user", "active": true},
		"required_roles": []string{"user"},
	}
	rs, err := rego.New(
		rego.Query(authzQuery),
		rego.Compiler(e.compiler),
		rego.Input(minimalInput),
	).Eval(ctx)
	if err != nil {
		return fmt.Errorf("eval authz policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("policy query returned no result")
	}
	return nil
}

// Authorize reports whether the user's role is in requiredRoles.
func (e *OPAEvaluator) Authorize(ctx context.Context, user *userdomain.User, requiredRoles []userdomain.Role) (bool, error) {
	if user == nil {
		return false, nil
	}
	roles := make([]string, len(requiredRoles))
	for i, r := range requiredRoles {
		roles[i] = string(r)
	}
	input := map[string]interface{}{
		"user": map[string]interface{}{
			"id":     user.ID,
			"role":   string(user.Role),
			"active": user.Active(),
		},
		"required_roles": roles,
	}

	rs, err := rego.New(
		rego.Query(authzQuery),
		rego.Compiler(e.compiler),
		rego.Input(input),
	).Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval authz policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("policy query returned no result")
	}
	allow, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy query returned non-boolean")
	}
	return allow, nil
}
