package pin

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
)

func newLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := OpenLocalStore(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testMetadata(owner string) Metadata {
	return Metadata{
		Name:             "Evidence_1700000000000",
		Description:      "test artifact",
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
		VictimAddress:    owner,
		OriginalFileName: "report.pdf",
		FileType:         "application/pdf",
		FileSize:         4,
		Encrypted:        true,
	}
}

func TestLocalPinFetchRoundTrip(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()
	payload := []byte("sealed evidence bytes")

	address, err := store.PinFile(ctx, payload, testMetadata("0xAAA"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(address, "Qm"), "CIDv0 addresses start with Qm, got %s", address)

	fetched, err := store.Fetch(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, payload, fetched)
}

func TestLocalAddressIsDeterministic(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	a, err := store.PinFile(ctx, []byte("same bytes"), testMetadata("0xaaa"))
	require.NoError(t, err)
	b, err := store.PinFile(ctx, []byte("same bytes"), testMetadata("0xbbb"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := store.PinFile(ctx, []byte("other bytes"), testMetadata("0xaaa"))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestLocalMetadataAndOwnerListing(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	address, err := store.PinFile(ctx, []byte("payload"), testMetadata("0xAbC"))
	require.NoError(t, err)

	entry, err := store.GetMetadata(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, address, entry.ContentAddress)
	assert.Equal(t, "test artifact", entry.Metadata.Description)
	assert.True(t, entry.Metadata.Encrypted)

	entries, err := store.ListByOwner(ctx, "0xABC")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, address, entries[0].ContentAddress)

	entries, err = store.ListByOwner(ctx, "0xother")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalUnpinRemovesEverything(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	address, err := store.PinFile(ctx, []byte("payload"), testMetadata("0xaaa"))
	require.NoError(t, err)

	require.NoError(t, store.Unpin(ctx, address))

	_, err = store.Fetch(ctx, address)
	assert.ErrorIs(t, err, evidence.ErrNotFound)
	_, err = store.GetMetadata(ctx, address)
	assert.ErrorIs(t, err, evidence.ErrNotFound)

	entries, err := store.ListByOwner(ctx, "0xaaa")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalGetMetadataUnknownAddress(t *testing.T) {
	store := newLocalStore(t)

	_, err := store.GetMetadata(context.Background(), "QmUnknown")
	assert.ErrorIs(t, err, evidence.ErrNotFound)
}
