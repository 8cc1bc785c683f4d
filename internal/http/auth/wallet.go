// Package auth authenticates requests by wallet address. The service trusts
// the X-Wallet-Address header; signature verification happens at the edge.
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
	"github.com/shambhavip19/CyberHope/internal/http/common"
)

const WalletHeader = "X-Wallet-Address"

// WalletMiddleware requires a wallet address on every request in the group
// and stores its normalized form for the handlers.
func WalletMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet := evidence.NormalizeAddress(c.GetHeader(WalletHeader))
		if wallet == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: WalletHeader + " header required",
			})
			return
		}
		common.SetWallet(c, wallet)
		c.Next()
	}
}
