package pin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
)

func TestPinataPinFile(t *testing.T) {
	var gotMetadata string
	var gotOptions string
	var gotFile []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/pinning/pinFileToIPFS", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("pinata_api_key"))
		require.Equal(t, "test-secret", r.Header.Get("pinata_secret_api_key"))

		require.NoError(t, r.ParseMultipartForm(32<<20))
		gotMetadata = r.FormValue("pinataMetadata")
		gotOptions = r.FormValue("pinataOptions")

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		buf := make([]byte, 64)
		n, _ := file.Read(buf)
		gotFile = buf[:n]

		_ = json.NewEncoder(w).Encode(pinResponse{IpfsHash: "QmPinned", PinSize: int64(n)})
	}))
	defer server.Close()

	client := NewPinataClient(server.URL, "test-key", "test-secret", 5*time.Second)
	address, err := client.PinFile(context.Background(), []byte("ciphertext"), testMetadata("0xaaa"))
	require.NoError(t, err)
	assert.Equal(t, "QmPinned", address)
	assert.Equal(t, []byte("ciphertext"), gotFile)
	assert.Contains(t, gotMetadata, `"victimAddress":"0xaaa"`)
	assert.Contains(t, gotOptions, `"cidVersion":0`)
}

func TestPinataPinFileUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "pin service exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewPinataClient(server.URL, "k", "s", 5*time.Second)
	_, err := client.PinFile(context.Background(), []byte("x"), testMetadata("0xaaa"))
	assert.ErrorIs(t, err, evidence.ErrUpstream)
}

func TestPinataGetMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/pinList", r.URL.Path)
		require.Equal(t, "QmLookup", r.URL.Query().Get("hashContains"))
		require.Equal(t, "pinned", r.URL.Query().Get("status"))

		_, _ = w.Write([]byte(`{
			"count": 1,
			"rows": [{
				"ipfs_pin_hash": "QmLookup",
				"size": 42,
				"date_pinned": "2024-01-01T00:00:00Z",
				"metadata": {
					"name": "Evidence_1",
					"keyvalues": {"description": "doc", "victimAddress": "0xaaa", "encrypted": true}
				}
			}]
		}`))
	}))
	defer server.Close()

	client := NewPinataClient(server.URL, "k", "s", 5*time.Second)
	entry, err := client.GetMetadata(context.Background(), "QmLookup")
	require.NoError(t, err)
	assert.Equal(t, "QmLookup", entry.ContentAddress)
	assert.Equal(t, int64(42), entry.Size)
	assert.Equal(t, "doc", entry.Metadata.Description)
	assert.Equal(t, "0xaaa", entry.Metadata.VictimAddress)
}

func TestPinataGetMetadataNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count": 0, "rows": []}`))
	}))
	defer server.Close()

	client := NewPinataClient(server.URL, "k", "s", 5*time.Second)
	_, err := client.GetMetadata(context.Background(), "QmMissing")
	assert.ErrorIs(t, err, evidence.ErrNotFound)
}

func TestPinataUnpin(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewPinataClient(server.URL, "k", "s", 5*time.Second)
	require.NoError(t, client.Unpin(context.Background(), "QmGone"))
	assert.Equal(t, "/pinning/unpin/QmGone", gotPath)
}

func TestPinataGatewayURL(t *testing.T) {
	client := NewPinataClient("http://api", "k", "s", time.Second)
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/QmX", client.GatewayURL("QmX"))

	custom := NewPinataClient("http://api", "k", "s", time.Second, WithGateway("http://gw/ipfs/"))
	assert.Equal(t, "http://gw/ipfs/QmX", custom.GatewayURL("QmX"))
}
