// Package evidence serves the upload and content-retrieval API surface.
package evidence

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
	"github.com/shambhavip19/CyberHope/internal/http/common"
	"github.com/shambhavip19/CyberHope/internal/infra/pin"
	"github.com/shambhavip19/CyberHope/internal/usecase"
)

type Handler struct {
	Uploads *usecase.UploadService
	Pins    pin.Pinner
	Log     *logrus.Logger
}

func NewHandler(uploads *usecase.UploadService, pins pin.Pinner, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{Uploads: uploads, Pins: pins, Log: log}
}

type uploadResponse struct {
	Success       bool         `json:"success"`
	EvidenceID    uint64       `json:"evidenceId"`
	IPFSHash      string       `json:"ipfsHash"`
	EncryptionKey string       `json:"encryptionKey"`
	Metadata      pin.Metadata `json:"metadata"`
}

// HandleUpload runs the full submission pipeline from a multipart form:
// file, description and victimAddress.
func (h *Handler) HandleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "file is required")
		return
	}
	if h.Uploads.MaxBytes > 0 && fileHeader.Size > h.Uploads.MaxBytes {
		common.WriteError(c, fmt.Errorf("%w: %d bytes exceeds limit of %d",
			evidence.ErrFileTooLarge, fileHeader.Size, h.Uploads.MaxBytes))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "unreadable file")
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		common.WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "unreadable file")
		return
	}

	result, err := h.Uploads.Upload(c.Request.Context(), usecase.UploadInput{
		Owner:       c.PostForm("victimAddress"),
		Description: c.PostForm("description"),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Payload:     payload,
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse{
		Success:       true,
		EvidenceID:    result.EvidenceID,
		IPFSHash:      result.ContentAddress,
		EncryptionKey: result.EncryptionKey,
		Metadata:      result.Metadata,
	})
}

// HandleGateway resolves a content address to a fetchable URL.
func (h *Handler) HandleGateway(c *gin.Context) {
	hash := strings.TrimSpace(c.Param("hash"))
	if _, err := h.Pins.GetMetadata(c.Request.Context(), hash); err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"hash":    hash,
		"ipfsUrl": h.Pins.GatewayURL(hash),
	})
}

func (h *Handler) HandleMetadata(c *gin.Context) {
	hash := strings.TrimSpace(c.Param("hash"))
	entry, err := h.Pins.GetMetadata(c.Request.Context(), hash)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "metadata": entry})
}

// HandleRaw streams the sealed blob itself. Only the local content store can
// serve this; with a remote pinning service clients fetch from the gateway.
func (h *Handler) HandleRaw(c *gin.Context) {
	fetcher, ok := h.Pins.(pin.BlobFetcher)
	if !ok {
		common.WriteErrorCode(c, http.StatusNotFound, "NOT_FOUND", "raw fetch not available, use the gateway url")
		return
	}
	blob, err := fetcher.Fetch(c.Request.Context(), strings.TrimSpace(c.Param("hash")))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", blob)
}

// HandleListByOwner lists the pin entries tagged with an owner address.
func (h *Handler) HandleListByOwner(c *gin.Context) {
	owner := evidence.NormalizeAddress(c.Param("address"))
	if owner == "" {
		common.WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "address is required")
		return
	}
	entries, err := h.Pins.ListByOwner(c.Request.Context(), owner)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	if entries == nil {
		entries = []pin.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "evidence": entries})
}

// HandlePinJSON pins an arbitrary JSON document, used by clients that keep
// auxiliary metadata alongside the sealed evidence.
func (h *Handler) HandlePinJSON(c *gin.Context) {
	var body struct {
		Name    string         `json:"name"`
		Content map[string]any `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		common.WriteErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}
	if len(body.Content) == 0 {
		common.WriteErrorCode(c, http.StatusBadRequest, "INVALID_ARGUMENT", "content is required")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = fmt.Sprintf("Evidence_Metadata_%d", time.Now().UnixMilli())
	}

	hash, err := h.Pins.PinJSON(c.Request.Context(), body.Content, name)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ipfsHash": hash})
}
