package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shambhavip19/CyberHope/internal/crypto"
	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
	"github.com/shambhavip19/CyberHope/internal/infra/pin"
	"github.com/shambhavip19/CyberHope/internal/ledger"
	"github.com/shambhavip19/CyberHope/internal/ledger/memory"
)

type fakePinner struct {
	pinCalls   int
	unpinCalls int
	failPins   int
	lastBody   []byte
	lastMeta   pin.Metadata
	unpinned   []string
}

func (f *fakePinner) PinFile(ctx context.Context, payload []byte, meta pin.Metadata) (string, error) {
	f.pinCalls++
	if f.pinCalls <= f.failPins {
		return "", fmt.Errorf("%w: simulated outage", evidence.ErrUpstream)
	}
	f.lastBody = append([]byte(nil), payload...)
	f.lastMeta = meta
	return fmt.Sprintf("Qm%d", f.pinCalls), nil
}

func (f *fakePinner) PinJSON(ctx context.Context, value any, name string) (string, error) {
	return "QmJSON", nil
}

func (f *fakePinner) GetMetadata(ctx context.Context, address string) (pin.Entry, error) {
	return pin.Entry{}, evidence.ErrNotFound
}

func (f *fakePinner) ListByOwner(ctx context.Context, owner string) ([]pin.Entry, error) {
	return nil, nil
}

func (f *fakePinner) Unpin(ctx context.Context, address string) error {
	f.unpinCalls++
	f.unpinned = append(f.unpinned, address)
	return nil
}

func (f *fakePinner) GatewayURL(address string) string {
	return "https://gateway.example/ipfs/" + address
}

type failingCreateStore struct {
	ledger.Store
}

func (failingCreateStore) Create(ctx context.Context, rec evidence.Record) (uint64, error) {
	return 0, errors.New("database unavailable")
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newUploadService(store ledger.Store, pinner pin.Pinner) *UploadService {
	svc := NewUploadService(store, pinner, quietLogger())
	svc.Clock = func() time.Time { return time.Unix(1700000000, 0) }
	return svc
}

func TestUploadPipeline(t *testing.T) {
	store := memory.NewStore()
	pinner := &fakePinner{}
	svc := newUploadService(store, pinner)

	payload := []byte("incident footage")
	result, err := svc.Upload(context.Background(), UploadInput{
		Owner:       "0xVictim",
		Description: "harassment screenshots",
		FileName:    "footage.mp4",
		ContentType: "video/mp4",
		Payload:     payload,
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(1), result.EvidenceID)
	assert.Equal(t, "Qm1", result.ContentAddress)
	assert.Len(t, result.EncryptionKey, crypto.KeySize*2)

	rec, err := store.Get(context.Background(), result.EvidenceID)
	require.NoError(t, err)
	assert.Equal(t, "0xvictim", rec.Owner)
	assert.Equal(t, "Qm1", rec.ContentAddress)
	assert.Equal(t, result.EncryptionKey, rec.EncryptionKey)
	assert.True(t, rec.Active)

	// Pinned metadata carries the normalized owner and original file details.
	assert.Equal(t, "0xvictim", pinner.lastMeta.VictimAddress)
	assert.Equal(t, "footage.mp4", pinner.lastMeta.OriginalFileName)
	assert.Equal(t, int64(len(payload)), pinner.lastMeta.FileSize)
	assert.True(t, pinner.lastMeta.Encrypted)

	// The pinned document is the sealed envelope, not the plaintext.
	assert.NotContains(t, string(pinner.lastBody), "incident footage")
	env, err := DecodeSealedPayload(pinner.lastBody)
	require.NoError(t, err)
	plain, err := crypto.Open(result.EncryptionKey, env)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, plain))
}

func TestUploadValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   UploadInput
		wantErr error
	}{
		{
			"missing owner",
			UploadInput{Description: "d", Payload: []byte("x")},
			evidence.ErrInvalidArgument,
		},
		{
			"missing description",
			UploadInput{Owner: "0xa", Payload: []byte("x")},
			evidence.ErrInvalidArgument,
		},
		{
			"empty file",
			UploadInput{Owner: "0xa", Description: "d"},
			evidence.ErrInvalidArgument,
		},
		{
			"oversize file",
			UploadInput{Owner: "0xa", Description: "d", Payload: make([]byte, 11<<20)},
			evidence.ErrFileTooLarge,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pinner := &fakePinner{}
			svc := newUploadService(memory.NewStore(), pinner)

			_, err := svc.Upload(context.Background(), tc.input)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, evidence.PhaseValidate, evidence.Phase(err))
			// Validation failures never reach the network.
			assert.Zero(t, pinner.pinCalls)
		})
	}
}

func TestUploadRetriesPinFailures(t *testing.T) {
	pinner := &fakePinner{failPins: 1}
	svc := newUploadService(memory.NewStore(), pinner)

	result, err := svc.Upload(context.Background(), UploadInput{
		Owner:       "0xa",
		Description: "d",
		Payload:     []byte("x"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, pinner.pinCalls)
	assert.Equal(t, "Qm2", result.ContentAddress)
}

func TestUploadPinFailureLeavesNoRecord(t *testing.T) {
	store := memory.NewStore()
	pinner := &fakePinner{failPins: 100}
	svc := newUploadService(store, pinner)

	_, err := svc.Upload(context.Background(), UploadInput{
		Owner:       "0xa",
		Description: "d",
		Payload:     []byte("x"),
	})
	assert.ErrorIs(t, err, evidence.ErrUpstream)
	assert.Equal(t, evidence.PhasePin, evidence.Phase(err))
	assert.Equal(t, svc.Retries+1, pinner.pinCalls)

	records, err := store.ListByOwner(context.Background(), "0xa")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUploadLedgerFailureUnpinsOrphan(t *testing.T) {
	pinner := &fakePinner{}
	svc := newUploadService(failingCreateStore{memory.NewStore()}, pinner)

	_, err := svc.Upload(context.Background(), UploadInput{
		Owner:       "0xa",
		Description: "d",
		Payload:     []byte("x"),
	})
	assert.ErrorIs(t, err, evidence.ErrLedgerWrite)
	assert.Equal(t, evidence.PhaseLedger, evidence.Phase(err))
	assert.Equal(t, []string{"Qm1"}, pinner.unpinned)
}

func TestDecodeSealedPayloadRejectsGarbage(t *testing.T) {
	_, err := DecodeSealedPayload([]byte("not json"))
	assert.Error(t, err)

	_, err = DecodeSealedPayload([]byte(`{"encrypted":"zz","iv":"00","authTag":"00"}`))
	assert.Error(t, err)
}
