package common

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
	"github.com/shambhavip19/CyberHope/internal/usecase"
)

const walletKey = "wallet"

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// RecordResponse is the wire form of a ledger record. encryptionKey and the
// access collections are omitted when the service stripped them for the
// caller.
type RecordResponse struct {
	ID             uint64                  `json:"id"`
	Owner          string                  `json:"owner"`
	IPFSHash       string                  `json:"ipfsHash"`
	EncryptionKey  string                  `json:"encryptionKey,omitempty"`
	Description    string                  `json:"description"`
	Timestamp      string                  `json:"timestamp"`
	Active         bool                    `json:"active"`
	HasAccess      *bool                   `json:"hasAccess,omitempty"`
	HasRequested   *bool                   `json:"hasRequested,omitempty"`
	AccessRequests []AccessRequestResponse `json:"accessRequests,omitempty"`
	GrantedAccess  []GrantedAccessResponse `json:"grantedAccess,omitempty"`
}

type AccessRequestResponse struct {
	ID        string `json:"id"`
	Requester string `json:"requester"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
}

type GrantedAccessResponse struct {
	Requester string `json:"requester"`
	GrantedAt string `json:"grantedAt"`
}

type IncomingRequestResponse struct {
	AccessRequestResponse
	EvidenceID          uint64 `json:"evidenceId"`
	EvidenceDescription string `json:"evidenceDescription"`
}

// SetWallet stores the authenticated wallet address on the request context.
func SetWallet(c *gin.Context, addr string) {
	c.Set(walletKey, addr)
}

// WalletFromContext returns the authenticated wallet address, failing the
// request if the middleware never ran.
func WalletFromContext(c *gin.Context) (string, bool) {
	value, ok := c.Get(walletKey)
	if !ok {
		WriteErrorCode(c, http.StatusInternalServerError, "INTERNAL", "wallet missing from context")
		return "", false
	}
	wallet, ok := value.(string)
	if !ok || wallet == "" {
		WriteErrorCode(c, http.StatusInternalServerError, "INTERNAL", "wallet invalid")
		return "", false
	}
	return wallet, true
}

// ParseIDParam reads a numeric evidence id from the route.
func ParseIDParam(c *gin.Context, name string) (uint64, bool) {
	value := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func ToRecordResponse(rec evidence.Record) RecordResponse {
	resp := RecordResponse{
		ID:            rec.ID,
		Owner:         rec.Owner,
		IPFSHash:      rec.ContentAddress,
		EncryptionKey: rec.EncryptionKey,
		Description:   rec.Description,
		Timestamp:     rec.CreatedAt.UTC().Format(time.RFC3339),
		Active:        rec.Active,
	}
	for _, req := range rec.AccessRequests {
		resp.AccessRequests = append(resp.AccessRequests, ToAccessRequestResponse(req, req.Status))
	}
	for _, g := range rec.GrantedAccess {
		resp.GrantedAccess = append(resp.GrantedAccess, GrantedAccessResponse{
			Requester: g.Requester,
			GrantedAt: g.GrantedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp
}

func ToRecordViewResponse(view usecase.RecordView) RecordResponse {
	resp := ToRecordResponse(view.Record)
	hasAccess, hasRequested := view.HasAccess, view.HasRequested
	resp.HasAccess = &hasAccess
	resp.HasRequested = &hasRequested
	return resp
}

func ToAccessRequestResponse(req evidence.AccessRequest, status evidence.RequestStatus) AccessRequestResponse {
	return AccessRequestResponse{
		ID:        req.ID,
		Requester: req.Requester,
		Timestamp: req.Timestamp.UTC().Format(time.RFC3339),
		Status:    string(status),
	}
}

// WriteError maps domain sentinels onto HTTP statuses. Pipeline failures
// carry their phase in the details so clients can tell a retryable pin
// outage from a ledger write that may have orphaned a pin.
func WriteError(c *gin.Context, err error) {
	details := map[string]any{}
	if phase := evidence.Phase(err); phase != "" {
		details["phase"] = phase
	}
	switch {
	case errors.Is(err, evidence.ErrUnauthorized):
		WriteErrorCode(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	case errors.Is(err, evidence.ErrForbidden):
		WriteErrorCode(c, http.StatusForbidden, "FORBIDDEN", "forbidden")
	case errors.Is(err, evidence.ErrNotFound):
		WriteErrorCode(c, http.StatusNotFound, "NOT_FOUND", "not found")
	case errors.Is(err, evidence.ErrFileTooLarge):
		WriteErrorCode(c, http.StatusBadRequest, "FILE_TOO_LARGE", "file too large")
	case errors.Is(err, evidence.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_ARGUMENT",
			Message: strings.TrimPrefix(err.Error(), evidence.PhaseValidate+": "),
		})
	case errors.Is(err, evidence.ErrUpstream):
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "UPSTREAM_FAILURE",
			Message: "pinning service failure",
			Details: details,
		})
	case errors.Is(err, evidence.ErrLedgerWrite):
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "LEDGER_WRITE_FAILURE",
			Message: "evidence pinned but ledger write failed",
			Details: details,
		})
	default:
		WriteErrorCode(c, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

func WriteErrorCode(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message})
}
