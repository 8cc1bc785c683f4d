package usecase

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shambhavip19/CyberHope/internal/crypto"
	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
	"github.com/shambhavip19/CyberHope/internal/infra/pin"
	"github.com/shambhavip19/CyberHope/internal/ledger"
)

// UploadService sequences the evidence submission pipeline:
// validate, encrypt, pin, then write the ledger record. The ledger write
// happens strictly after a successful pin; a pin that succeeds without a
// ledger record is an orphan and gets cleaned up or logged.
type UploadService struct {
	Store      ledger.Store
	Pinner     pin.Pinner
	Log        *logrus.Logger
	MaxBytes   int64
	Retries    int
	PinTimeout time.Duration
	Clock      func() time.Time
}

type UploadInput struct {
	Owner       string
	Description string
	FileName    string
	ContentType string
	Payload     []byte
}

type UploadResult struct {
	EvidenceID     uint64
	ContentAddress string
	EncryptionKey  string
	Metadata       pin.Metadata
}

// sealedPayload is the JSON document that actually gets pinned: ciphertext,
// initialization vector and authentication tag, hex encoded the way the
// browser client serialized them.
type sealedPayload struct {
	Encrypted string `json:"encrypted"`
	IV        string `json:"iv"`
	AuthTag   string `json:"authTag"`
}

func NewUploadService(store ledger.Store, pinner pin.Pinner, log *logrus.Logger) *UploadService {
	if log == nil {
		log = logrus.New()
	}
	return &UploadService{
		Store:      store,
		Pinner:     pinner,
		Log:        log,
		MaxBytes:   10 << 20,
		Retries:    2,
		PinTimeout: 30 * time.Second,
		Clock:      time.Now,
	}
}

func (s *UploadService) Upload(ctx context.Context, input UploadInput) (UploadResult, error) {
	if err := s.validate(input); err != nil {
		return UploadResult{}, &evidence.PhaseError{Phase: evidence.PhaseValidate, Err: err}
	}

	owner := evidence.NormalizeAddress(input.Owner)

	key, err := crypto.GenerateKey()
	if err != nil {
		return UploadResult{}, &evidence.PhaseError{Phase: evidence.PhaseEncrypt, Err: err}
	}
	env, err := crypto.Seal(key, input.Payload)
	if err != nil {
		return UploadResult{}, &evidence.PhaseError{Phase: evidence.PhaseEncrypt, Err: err}
	}

	now := s.Clock().UTC()
	meta := pin.Metadata{
		Name:             fmt.Sprintf("Evidence_%d", now.UnixMilli()),
		Description:      input.Description,
		Timestamp:        now.Format(time.RFC3339),
		VictimAddress:    owner,
		OriginalFileName: input.FileName,
		FileType:         input.ContentType,
		FileSize:         int64(len(input.Payload)),
		Encrypted:        true,
	}
	sealed, err := encodeSealedPayload(env)
	if err != nil {
		return UploadResult{}, &evidence.PhaseError{Phase: evidence.PhaseEncrypt, Err: err}
	}

	address, err := s.pinWithRetry(ctx, sealed, meta)
	if err != nil {
		return UploadResult{}, &evidence.PhaseError{Phase: evidence.PhasePin, Err: err}
	}

	id, err := s.Store.Create(ctx, evidence.Record{
		Owner:          owner,
		ContentAddress: address,
		EncryptionKey:  key,
		Description:    input.Description,
		CreatedAt:      now,
		Active:         true,
	})
	if err != nil {
		s.cleanupOrphan(address)
		return UploadResult{}, &evidence.PhaseError{
			Phase: evidence.PhaseLedger,
			Err:   fmt.Errorf("%w: %v", evidence.ErrLedgerWrite, err),
		}
	}

	s.Log.WithFields(logrus.Fields{
		"evidenceId":     id,
		"owner":          owner,
		"contentAddress": address,
	}).Info("evidence submitted")

	return UploadResult{
		EvidenceID:     id,
		ContentAddress: address,
		EncryptionKey:  key,
		Metadata:       meta,
	}, nil
}

func (s *UploadService) validate(input UploadInput) error {
	if evidence.NormalizeAddress(input.Owner) == "" {
		return fmt.Errorf("%w: owner address is required", evidence.ErrInvalidArgument)
	}
	if strings.TrimSpace(input.Description) == "" {
		return fmt.Errorf("%w: description is required", evidence.ErrInvalidArgument)
	}
	if len(input.Payload) == 0 {
		return fmt.Errorf("%w: file is required", evidence.ErrInvalidArgument)
	}
	if s.MaxBytes > 0 && int64(len(input.Payload)) > s.MaxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", evidence.ErrFileTooLarge, len(input.Payload), s.MaxBytes)
	}
	return nil
}

func (s *UploadService) pinWithRetry(ctx context.Context, payload []byte, meta pin.Metadata) (string, error) {
	attempts := s.Retries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pinCtx, cancel := context.WithTimeout(ctx, s.PinTimeout)
		address, err := s.Pinner.PinFile(pinCtx, payload, meta)
		cancel()
		if err == nil {
			return address, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		s.Log.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("pin attempt failed")
	}
	return "", lastErr
}

// cleanupOrphan tries to unpin a blob whose ledger write failed. Uses a
// fresh context: the request context may already be dead and an orphaned
// pin must not be dropped silently.
func (s *UploadService) cleanupOrphan(address string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.PinTimeout)
	defer cancel()

	if err := s.Pinner.Unpin(ctx, address); err != nil {
		s.Log.WithFields(logrus.Fields{
			"contentAddress": address,
			"error":          err.Error(),
		}).Warn("orphaned pin left behind: ledger write failed and unpin failed")
		return
	}
	s.Log.WithField("contentAddress", address).Info("unpinned orphan after ledger write failure")
}

func encodeSealedPayload(env crypto.Envelope) ([]byte, error) {
	doc := sealedPayload{
		Encrypted: hex.EncodeToString(env.Ciphertext),
		IV:        hex.EncodeToString(env.Nonce),
		AuthTag:   hex.EncodeToString(env.Tag),
	}
	return json.Marshal(doc)
}

// DecodeSealedPayload parses a pinned document back into an envelope for
// decryption.
func DecodeSealedPayload(payload []byte) (crypto.Envelope, error) {
	var doc sealedPayload
	if err := json.Unmarshal(payload, &doc); err != nil {
		return crypto.Envelope{}, err
	}
	ciphertext, err := hex.DecodeString(doc.Encrypted)
	if err != nil {
		return crypto.Envelope{}, err
	}
	nonce, err := hex.DecodeString(doc.IV)
	if err != nil {
		return crypto.Envelope{}, err
	}
	tag, err := hex.DecodeString(doc.AuthTag)
	if err != nil {
		return crypto.Envelope{}, err
	}
	return crypto.Envelope{Ciphertext: ciphertext, Nonce: nonce, Tag: tag}, nil
}
