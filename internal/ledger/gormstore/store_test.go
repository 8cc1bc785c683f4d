package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	return store
}

func testRecord(owner string) evidence.Record {
	return evidence.Record{
		Owner:          owner,
		ContentAddress: "QmTestHash",
		EncryptionKey:  "deadbeef",
		Description:    "test evidence",
		CreatedAt:      time.Now().UTC(),
		Active:         true,
	}
}

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, testRecord("0xaaa"))
	require.NoError(t, err)
	second, err := store.Create(ctx, testRecord("0xaaa"))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)
}

func TestGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, testRecord("0xAbC"))
	require.NoError(t, err)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "0xabc", rec.Owner, "owner stored lower-cased")
	assert.Equal(t, "QmTestHash", rec.ContentAddress)
	assert.Equal(t, "test evidence", rec.Description)
	assert.True(t, rec.Active)
	assert.Empty(t, rec.AccessRequests)
	assert.Empty(t, rec.GrantedAccess)
}

func TestGetUnknownIDReturnsNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), 999)
	assert.ErrorIs(t, err, evidence.ErrNotFound)
}

func TestListByOwnerOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, testRecord("0xaaa"))
	require.NoError(t, err)
	_, err = store.Create(ctx, testRecord("0xbbb"))
	require.NoError(t, err)
	_, err = store.Create(ctx, testRecord("0xAAA"))
	require.NoError(t, err)

	recs, err := store.ListByOwner(ctx, "0xAaA")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(1), recs[0].ID)
	assert.Equal(t, uint64(3), recs[1].ID)
}

func TestUpdatePersistsCollections(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, testRecord("0xaaa"))
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	err = store.Update(ctx, id, func(rec *evidence.Record) error {
		rec.AccessRequests = append(rec.AccessRequests, evidence.AccessRequest{
			ID:        "req-1",
			Requester: "0xbbb",
			Timestamp: now,
			Status:    evidence.StatusPending,
		})
		return nil
	})
	require.NoError(t, err)

	err = store.Update(ctx, id, func(rec *evidence.Record) error {
		rec.AccessRequests[0].Status = evidence.StatusApproved
		rec.GrantedAccess = append(rec.GrantedAccess, evidence.GrantedAccess{
			Requester: "0xbbb",
			GrantedAt: now,
		})
		return nil
	})
	require.NoError(t, err)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	require.Len(t, rec.AccessRequests, 1)
	assert.Equal(t, evidence.StatusApproved, rec.AccessRequests[0].Status)
	require.Len(t, rec.GrantedAccess, 1)
	assert.Equal(t, "0xbbb", rec.GrantedAccess[0].Requester)

	// Revoke path: grants shrink, request status untouched.
	err = store.Update(ctx, id, func(rec *evidence.Record) error {
		rec.GrantedAccess = nil
		return nil
	})
	require.NoError(t, err)

	rec, err = store.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, rec.GrantedAccess)
	assert.Equal(t, evidence.StatusApproved, rec.AccessRequests[0].Status)
}

func TestUpdateUnknownIDReturnsNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(context.Background(), 42, func(rec *evidence.Record) error {
		t.Fatal("fn must not run for a missing record")
		return nil
	})
	assert.ErrorIs(t, err, evidence.ErrNotFound)
}

func TestUpdateAbortsOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, testRecord("0xaaa"))
	require.NoError(t, err)

	sentinel := evidence.ErrInvalidArgument
	err = store.Update(ctx, id, func(rec *evidence.Record) error {
		rec.GrantedAccess = append(rec.GrantedAccess, evidence.GrantedAccess{Requester: "0xbbb"})
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, rec.GrantedAccess, "aborted update must not persist")
}

func TestPurgeResetsCounter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, testRecord("0xaaa"))
	require.NoError(t, err)
	_, err = store.Create(ctx, testRecord("0xaaa"))
	require.NoError(t, err)

	require.NoError(t, store.Purge(ctx))

	recs, err := store.ListByOwner(ctx, "0xaaa")
	require.NoError(t, err)
	assert.Empty(t, recs)

	id, err := store.Create(ctx, testRecord("0xaaa"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
}
