package evidence

import (
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of an access request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusDenied   RequestStatus = "denied"
)

// Record is a ledger entry tying an owner, a content address and an
// access-control list together. Ids are assigned by the ledger, strictly
// increasing, and never reused.
type Record struct {
	ID             uint64
	Owner          string
	ContentAddress string
	// EncryptionKey is the hex-encoded symmetric key for the pinned
	// artifact. It must never leave the service for callers that fail the
	// access check.
	EncryptionKey  string
	Description    string
	CreatedAt      time.Time
	Active         bool
	AccessRequests []AccessRequest
	GrantedAccess  []GrantedAccess
}

// AccessRequest is a viewer's petition to decrypt a record's artifact.
type AccessRequest struct {
	ID        string
	Requester string
	Timestamp time.Time
	Status    RequestStatus
}

// GrantedAccess marks a non-owner address as allowed to view a record.
// At most one entry per requester per record.
type GrantedAccess struct {
	Requester string
	GrantedAt time.Time
}

// IncomingRequest is an access request annotated with the record it targets,
// used for the owner's aggregated request feed.
type IncomingRequest struct {
	AccessRequest
	EvidenceID          uint64
	EvidenceDescription string
}

// NormalizeAddress lower-cases a wallet address so identity comparisons are
// case-insensitive everywhere.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// HasAccess reports whether addr may view the record's artifact. Ownership
// alone satisfies the check; otherwise the address must hold a grant.
func (r *Record) HasAccess(addr string) bool {
	addr = NormalizeAddress(addr)
	if addr == "" {
		return false
	}
	if r.Owner == addr {
		return true
	}
	for _, g := range r.GrantedAccess {
		if g.Requester == addr {
			return true
		}
	}
	return false
}

// RequestBy returns the requester's access request on this record, if any.
func (r *Record) RequestBy(addr string) (*AccessRequest, bool) {
	addr = NormalizeAddress(addr)
	for i := range r.AccessRequests {
		if r.AccessRequests[i].Requester == addr {
			return &r.AccessRequests[i], true
		}
	}
	return nil, false
}

// EffectiveStatus derives the status a viewer should be shown for a request:
// the stored status is kept verbatim except that an approved request whose
// grant has since been revoked reads as pending again. The stored value is
// never rewritten on revoke.
func (r *Record) EffectiveStatus(req AccessRequest) RequestStatus {
	if req.Status != StatusApproved {
		return req.Status
	}
	for _, g := range r.GrantedAccess {
		if g.Requester == req.Requester {
			return StatusApproved
		}
	}
	return StatusPending
}
