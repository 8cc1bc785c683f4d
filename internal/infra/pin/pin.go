// Package pin talks to the content-addressed storage side of the system:
// a Pinata-compatible pinning API in production, or a badger-backed local
// content store when no credentials are configured.
package pin

import "context"

// Metadata describes a pinned evidence artifact. Field names follow the
// pinning API's keyvalue schema so owners can be queried server-side.
type Metadata struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	Timestamp        string `json:"timestamp"`
	VictimAddress    string `json:"victimAddress"`
	OriginalFileName string `json:"originalFileName"`
	FileType         string `json:"fileType"`
	FileSize         int64  `json:"fileSize"`
	Encrypted        bool   `json:"encrypted"`
}

// Entry is one pinned artifact as reported by the pin service.
type Entry struct {
	ContentAddress string   `json:"ipfs_pin_hash"`
	Size           int64    `json:"size"`
	DatePinned     string   `json:"date_pinned"`
	Metadata       Metadata `json:"metadata"`
}

// Pinner stores and retains content-addressed blobs.
type Pinner interface {
	// PinFile pins payload with its metadata and returns the content
	// address.
	PinFile(ctx context.Context, payload []byte, meta Metadata) (string, error)

	// PinJSON pins an arbitrary JSON document under the given pin name.
	PinJSON(ctx context.Context, value any, name string) (string, error)

	// GetMetadata returns the pin entry for a content address, or
	// evidence.ErrNotFound.
	GetMetadata(ctx context.Context, address string) (Entry, error)

	// ListByOwner returns pins whose metadata carries the owner address.
	ListByOwner(ctx context.Context, owner string) ([]Entry, error)

	// Unpin releases a pinned blob. Used to clean up orphans when the
	// ledger write after a successful pin fails.
	Unpin(ctx context.Context, address string) error

	// GatewayURL returns a URL a client can fetch the blob from.
	GatewayURL(address string) string
}
