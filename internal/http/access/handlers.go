// Package access serves the ledger and access-control API surface. Every
// route requires an authenticated wallet.
package access

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shambhavip19/CyberHope/internal/http/common"
	"github.com/shambhavip19/CyberHope/internal/usecase"
)

type Handler struct {
	Service *usecase.AccessService
}

func NewHandler(service *usecase.AccessService) *Handler {
	return &Handler{Service: service}
}

type addressRequest struct {
	Address string `json:"address"`
}

// HandleListMine returns the caller's own records, keys included.
func (h *Handler) HandleListMine(c *gin.Context) {
	wallet, ok := common.WalletFromContext(c)
	if !ok {
		return
	}
	records, err := h.Service.ListByOwner(c.Request.Context(), wallet)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	resp := make([]common.RecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, common.ToRecordResponse(rec))
	}
	c.JSON(http.StatusOK, gin.H{"evidence": resp})
}

func (h *Handler) HandleGet(c *gin.Context) {
	wallet, ok := common.WalletFromContext(c)
	if !ok {
		return
	}
	id, ok := common.ParseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.Service.GetRecord(c.Request.Context(), id, wallet)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"evidence": common.ToRecordViewResponse(view)})
}

func (h *Handler) HandleRequestAccess(c *gin.Context) {
	wallet, ok := common.WalletFromContext(c)
	if !ok {
		return
	}
	id, ok := common.ParseIDParam(c, "id")
	if !ok {
		return
	}
	req, err := h.Service.RequestAccess(c.Request.Context(), id, wallet)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"request": common.ToAccessRequestResponse(req, req.Status),
	})
}

func (h *Handler) HandleListRequests(c *gin.Context) {
	wallet, ok := common.WalletFromContext(c)
	if !ok {
		return
	}
	id, ok := common.ParseIDParam(c, "id")
	if !ok {
		return
	}
	views, err := h.Service.ListAccessRequests(c.Request.Context(), id, wallet)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	resp := make([]common.AccessRequestResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, common.ToAccessRequestResponse(v.AccessRequest, v.EffectiveStatus))
	}
	c.JSON(http.StatusOK, gin.H{"requests": resp})
}

func (h *Handler) HandleGrant(c *gin.Context) {
	h.mutateGrant(c, h.Service.GrantAccess)
}

func (h *Handler) HandleDeny(c *gin.Context) {
	h.mutateGrant(c, h.Service.DenyAccess)
}

func (h *Handler) HandleRevoke(c *gin.Context) {
	h.mutateGrant(c, h.Service.RevokeAccess)
}

func (h *Handler) mutateGrant(c *gin.Context, op func(ctx context.Context, id uint64, caller, requester string) error) {
	wallet, ok := common.WalletFromContext(c)
	if !ok {
		return
	}
	id, ok := common.ParseIDParam(c, "id")
	if !ok {
		return
	}
	var body addressRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		common.WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if err := op(c.Request.Context(), id, wallet, body.Address); err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) HandleHasAccess(c *gin.Context) {
	wallet, ok := common.WalletFromContext(c)
	if !ok {
		return
	}
	id, ok := common.ParseIDParam(c, "id")
	if !ok {
		return
	}
	has, err := h.Service.HasAccess(c.Request.Context(), id, wallet)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hasAccess": has})
}

// HandleIncoming aggregates requests across all of the caller's records.
func (h *Handler) HandleIncoming(c *gin.Context) {
	wallet, ok := common.WalletFromContext(c)
	if !ok {
		return
	}
	incoming, err := h.Service.ListIncomingRequests(c.Request.Context(), wallet)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	resp := make([]common.IncomingRequestResponse, 0, len(incoming))
	for _, item := range incoming {
		resp = append(resp, common.IncomingRequestResponse{
			AccessRequestResponse: common.ToAccessRequestResponse(item.AccessRequest, item.Status),
			EvidenceID:            item.EvidenceID,
			EvidenceDescription:   item.EvidenceDescription,
		})
	}
	c.JSON(http.StatusOK, gin.H{"requests": resp})
}

func (h *Handler) HandlePurge(c *gin.Context) {
	if err := h.Service.Purge(c.Request.Context()); err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
