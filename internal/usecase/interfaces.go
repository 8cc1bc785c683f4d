package usecase

import (
	"context"
)

// Authorizer decides whether a caller may perform an access-control action
// on a record held by owner. Backed by the embedded rego policy in
// production.
type Authorizer interface {
	Authorize(ctx context.Context, action, caller, owner string) error
}
