// Package http wires the gin router: the upload/content surface under /api
// and the wallet-authenticated ledger surface under /v1.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shambhavip19/CyberHope/internal/config"
	accesshttp "github.com/shambhavip19/CyberHope/internal/http/access"
	"github.com/shambhavip19/CyberHope/internal/http/auth"
	"github.com/shambhavip19/CyberHope/internal/http/common"
	evidencehttp "github.com/shambhavip19/CyberHope/internal/http/evidence"
	"github.com/shambhavip19/CyberHope/internal/infra/pin"
	"github.com/shambhavip19/CyberHope/internal/infra/ratelimit"
	"github.com/shambhavip19/CyberHope/internal/usecase"
)

type Server struct {
	cfg     config.Config
	r       *gin.Engine
	log     *logrus.Logger
	uploads *usecase.UploadService
	access  *usecase.AccessService
	pins    pin.Pinner
	limiter ratelimit.Limiter
}

type ServerDeps struct {
	Uploads *usecase.UploadService
	Access  *usecase.AccessService
	Pins    pin.Pinner
	Limiter ratelimit.Limiter
	Log     *logrus.Logger
}

func NewServer(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:     cfg,
		r:       r,
		log:     deps.Log,
		uploads: deps.Uploads,
		access:  deps.Access,
		pins:    deps.Pins,
		limiter: deps.Limiter,
	}
	if s.log == nil {
		s.log = logrus.New()
	}
	if s.limiter == nil {
		s.limiter = ratelimit.NoopLimiter{}
	}
	s.routes()
	return s
}

func (s *Server) Run() error {
	s.log.WithField("addr", s.cfg.HTTPAddr).Info("listening")
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.r
}

func (s *Server) routes() {
	s.r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "evidence service is running"})
	})

	evidenceHandler := evidencehttp.NewHandler(s.uploads, s.pins, s.log)
	accessHandler := accesshttp.NewHandler(s.access)

	api := s.r.Group("/api")
	{
		api.POST("/upload-evidence", s.uploadRateLimit(), evidenceHandler.HandleUpload)
		api.POST("/pin-metadata", evidenceHandler.HandlePinJSON)
		api.GET("/evidence/user/:address", evidenceHandler.HandleListByOwner)
		api.GET("/evidence/:hash", evidenceHandler.HandleGateway)
		api.GET("/evidence/:hash/metadata", evidenceHandler.HandleMetadata)
		api.GET("/evidence/:hash/raw", evidenceHandler.HandleRaw)
	}

	v1 := s.r.Group("/v1", auth.WalletMiddleware())
	{
		v1.GET("/evidence", accessHandler.HandleListMine)
		v1.GET("/evidence/:id", accessHandler.HandleGet)
		v1.POST("/evidence/:id/access-requests", accessHandler.HandleRequestAccess)
		v1.GET("/evidence/:id/access-requests", accessHandler.HandleListRequests)
		v1.POST("/evidence/:id/grant", accessHandler.HandleGrant)
		v1.POST("/evidence/:id/deny", accessHandler.HandleDeny)
		v1.POST("/evidence/:id/revoke", accessHandler.HandleRevoke)
		v1.GET("/evidence/:id/access", accessHandler.HandleHasAccess)
		v1.GET("/access-requests", accessHandler.HandleIncoming)

		if s.cfg.AllowPurge {
			v1.POST("/admin/purge", accessHandler.HandlePurge)
		}
	}
}

// uploadRateLimit throttles submissions per owner address. Keyed on the
// wallet header when present, otherwise the form field, otherwise the
// client IP.
func (s *Server) uploadRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.UploadRateLimit <= 0 {
			c.Next()
			return
		}
		key := c.GetHeader(auth.WalletHeader)
		if key == "" {
			key = c.PostForm("victimAddress")
		}
		if key == "" {
			key = c.ClientIP()
		}

		decision, err := s.limiter.Allow(c.Request.Context(), "upload:"+key,
			s.cfg.UploadRateLimit, s.cfg.UploadRateWindow)
		if err != nil {
			// A broken limiter backend must not take uploads down with it.
			s.log.WithField("error", err.Error()).Warn("rate limiter unavailable, admitting request")
			c.Next()
			return
		}
		if !decision.Allowed {
			c.Header("Retry-After", decision.ResetAt.UTC().Format(http.TimeFormat))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Code:    "RATE_LIMITED",
				Message: "upload rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
