package evidence

// Actions evaluated by the access policy engine. Every mutating operation is
// restricted to the record owner except ActionRequest, which only non-owners
// may perform.
const (
	ActionRequest      = "request"
	ActionGrant        = "grant"
	ActionDeny         = "deny"
	ActionRevoke       = "revoke"
	ActionListRequests = "list_requests"
)
