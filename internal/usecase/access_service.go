package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
	"github.com/shambhavip19/CyberHope/internal/ledger"
)

// AccessService runs the request/grant/deny/revoke workflow over ledger
// records. Every mutation is authorized against the policy engine and
// applied inside a single atomic ledger update.
type AccessService struct {
	Store ledger.Store
	Authz Authorizer
	Log   *logrus.Logger
	Clock func() time.Time
	NewID func() string
}

func NewAccessService(store ledger.Store, authz Authorizer, log *logrus.Logger) *AccessService {
	if log == nil {
		log = logrus.New()
	}
	return &AccessService{
		Store: store,
		Authz: authz,
		Log:   log,
		Clock: time.Now,
		NewID: uuid.NewString,
	}
}

// RecordView is a caller-scoped projection of a ledger record. The
// encryption key is present only when the caller holds access, and the
// request/grant collections only when the caller is the owner.
type RecordView struct {
	evidence.Record
	HasAccess    bool
	HasRequested bool
}

// RequestView pairs a stored request with its derived status: a request
// marked approved whose grant has since been revoked reads as pending.
type RequestView struct {
	evidence.AccessRequest
	EffectiveStatus evidence.RequestStatus
}

// RequestAccess records the caller's interest in an evidence record.
// Idempotent: a second request by the same address returns the existing
// request untouched, whatever its status.
func (s *AccessService) RequestAccess(ctx context.Context, id uint64, caller string) (evidence.AccessRequest, error) {
	caller = evidence.NormalizeAddress(caller)

	var out evidence.AccessRequest
	err := s.Store.Update(ctx, id, func(rec *evidence.Record) error {
		if err := s.Authz.Authorize(ctx, evidence.ActionRequest, caller, rec.Owner); err != nil {
			return err
		}
		if existing, ok := rec.RequestBy(caller); ok {
			out = *existing
			return nil
		}
		req := evidence.AccessRequest{
			ID:        s.NewID(),
			Requester: caller,
			Timestamp: s.Clock().UTC(),
			Status:    evidence.StatusPending,
		}
		rec.AccessRequests = append(rec.AccessRequests, req)
		out = req
		return nil
	})
	if err != nil {
		return evidence.AccessRequest{}, err
	}

	s.Log.WithFields(logrus.Fields{
		"evidenceId": id,
		"requester":  caller,
		"requestId":  out.ID,
	}).Info("access requested")
	return out, nil
}

// GrantAccess adds requester to the granted set. Works with or without a
// prior request; if one exists it is flipped to approved.
func (s *AccessService) GrantAccess(ctx context.Context, id uint64, caller, requester string) error {
	caller = evidence.NormalizeAddress(caller)
	requester = evidence.NormalizeAddress(requester)
	if requester == "" {
		return fmt.Errorf("%w: requester address is required", evidence.ErrInvalidArgument)
	}

	err := s.Store.Update(ctx, id, func(rec *evidence.Record) error {
		if err := s.Authz.Authorize(ctx, evidence.ActionGrant, caller, rec.Owner); err != nil {
			return err
		}
		if requester == rec.Owner {
			return fmt.Errorf("%w: owner already holds access", evidence.ErrInvalidArgument)
		}
		for i := range rec.AccessRequests {
			if rec.AccessRequests[i].Requester == requester {
				rec.AccessRequests[i].Status = evidence.StatusApproved
			}
		}
		for _, g := range rec.GrantedAccess {
			if g.Requester == requester {
				return nil
			}
		}
		rec.GrantedAccess = append(rec.GrantedAccess, evidence.GrantedAccess{
			Requester: requester,
			GrantedAt: s.Clock().UTC(),
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.Log.WithFields(logrus.Fields{
		"evidenceId": id,
		"grantee":    requester,
	}).Info("access granted")
	return nil
}

// DenyAccess marks the requester's pending request as denied. Requests in
// any other state are left alone, and a missing request is a no-op.
func (s *AccessService) DenyAccess(ctx context.Context, id uint64, caller, requester string) error {
	caller = evidence.NormalizeAddress(caller)
	requester = evidence.NormalizeAddress(requester)
	if requester == "" {
		return fmt.Errorf("%w: requester address is required", evidence.ErrInvalidArgument)
	}

	err := s.Store.Update(ctx, id, func(rec *evidence.Record) error {
		if err := s.Authz.Authorize(ctx, evidence.ActionDeny, caller, rec.Owner); err != nil {
			return err
		}
		for i := range rec.AccessRequests {
			if rec.AccessRequests[i].Requester == requester && rec.AccessRequests[i].Status == evidence.StatusPending {
				rec.AccessRequests[i].Status = evidence.StatusDenied
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Log.WithFields(logrus.Fields{
		"evidenceId": id,
		"requester":  requester,
	}).Info("access denied")
	return nil
}

// RevokeAccess removes requester from the granted set. The stored request
// keeps its approved status; the derived status reported to clients falls
// back to pending so the requester may be re-granted.
func (s *AccessService) RevokeAccess(ctx context.Context, id uint64, caller, requester string) error {
	caller = evidence.NormalizeAddress(caller)
	requester = evidence.NormalizeAddress(requester)
	if requester == "" {
		return fmt.Errorf("%w: requester address is required", evidence.ErrInvalidArgument)
	}

	err := s.Store.Update(ctx, id, func(rec *evidence.Record) error {
		if err := s.Authz.Authorize(ctx, evidence.ActionRevoke, caller, rec.Owner); err != nil {
			return err
		}
		kept := rec.GrantedAccess[:0]
		for _, g := range rec.GrantedAccess {
			if g.Requester != requester {
				kept = append(kept, g)
			}
		}
		rec.GrantedAccess = kept
		return nil
	})
	if err != nil {
		return err
	}

	s.Log.WithFields(logrus.Fields{
		"evidenceId": id,
		"grantee":    requester,
	}).Info("access revoked")
	return nil
}

// HasAccess reports whether addr may read the evidence plaintext.
func (s *AccessService) HasAccess(ctx context.Context, id uint64, addr string) (bool, error) {
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	return rec.HasAccess(addr), nil
}

// GetRecord returns a view of the record scoped to the caller: the
// encryption key is stripped unless the caller holds access, and the
// request/grant collections are visible only to the owner.
func (s *AccessService) GetRecord(ctx context.Context, id uint64, caller string) (RecordView, error) {
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return RecordView{}, err
	}
	caller = evidence.NormalizeAddress(caller)

	_, requested := rec.RequestBy(caller)
	view := RecordView{
		Record:       rec,
		HasAccess:    rec.HasAccess(caller),
		HasRequested: requested,
	}
	if !view.HasAccess {
		view.EncryptionKey = ""
	}
	if caller != rec.Owner {
		view.AccessRequests = nil
		view.GrantedAccess = nil
	}
	return view, nil
}

// ListByOwner returns the caller's own records, key included.
func (s *AccessService) ListByOwner(ctx context.Context, owner string) ([]evidence.Record, error) {
	return s.Store.ListByOwner(ctx, owner)
}

// ListAccessRequests returns the requests on one record, most recent
// first, with derived statuses. Owner only.
func (s *AccessService) ListAccessRequests(ctx context.Context, id uint64, caller string) ([]RequestView, error) {
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	caller = evidence.NormalizeAddress(caller)
	if err := s.Authz.Authorize(ctx, evidence.ActionListRequests, caller, rec.Owner); err != nil {
		return nil, err
	}

	views := make([]RequestView, 0, len(rec.AccessRequests))
	for i := len(rec.AccessRequests) - 1; i >= 0; i-- {
		req := rec.AccessRequests[i]
		views = append(views, RequestView{
			AccessRequest:   req,
			EffectiveStatus: rec.EffectiveStatus(req),
		})
	}
	return views, nil
}

// ListIncomingRequests aggregates requests across every record the owner
// holds, newest first, each annotated with the evidence it belongs to.
func (s *AccessService) ListIncomingRequests(ctx context.Context, owner string) ([]evidence.IncomingRequest, error) {
	records, err := s.Store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	incoming := make([]evidence.IncomingRequest, 0)
	for _, rec := range records {
		for _, req := range rec.AccessRequests {
			view := req
			view.Status = rec.EffectiveStatus(req)
			incoming = append(incoming, evidence.IncomingRequest{
				AccessRequest:       view,
				EvidenceID:          rec.ID,
				EvidenceDescription: rec.Description,
			})
		}
	}
	sort.SliceStable(incoming, func(i, j int) bool {
		return incoming[i].Timestamp.After(incoming[j].Timestamp)
	})
	return incoming, nil
}

// Purge wipes the ledger. Gated by configuration; local development only.
func (s *AccessService) Purge(ctx context.Context) error {
	if err := s.Store.Purge(ctx); err != nil {
		return err
	}
	s.Log.Warn("ledger purged")
	return nil
}
