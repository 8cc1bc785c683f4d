package pin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/sirupsen/logrus"

	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
)

// BlobFetcher is implemented by pinners that can serve blob bytes directly
// instead of delegating to a public gateway.
type BlobFetcher interface {
	Fetch(ctx context.Context, address string) ([]byte, error)
}

// LocalStore is a badger-backed content-addressed store standing in for the
// pin network during local development. Addresses are CIDv0, matching what
// the remote API would mint.
type LocalStore struct {
	db  *badger.DB
	log *logrus.Logger
}

var (
	_ Pinner      = (*LocalStore)(nil)
	_ Pinner      = (*PinataClient)(nil)
	_ BlobFetcher = (*LocalStore)(nil)

	blobPrefix  = []byte("blob:")
	metaPrefix  = []byte("meta:")
	ownerPrefix = []byte("owner:")
)

func OpenLocalStore(path string, log *logrus.Logger) (*LocalStore, error) {
	if log == nil {
		log = logrus.New()
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	return &LocalStore{db: db, log: log}, nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}

func (s *LocalStore) PinFile(ctx context.Context, payload []byte, meta Metadata) (string, error) {
	address, err := contentAddress(payload)
	if err != nil {
		return "", err
	}

	entry := Entry{
		ContentAddress: address,
		Size:           int64(len(payload)),
		DatePinned:     meta.Timestamp,
		Metadata:       meta,
	}
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(append(blobPrefix, address...), payload); err != nil {
			return err
		}
		if err := txn.Set(append(metaPrefix, address...), entryJSON); err != nil {
			return err
		}
		owner := evidence.NormalizeAddress(meta.VictimAddress)
		if owner != "" {
			return txn.Set(ownerKey(owner, address), nil)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", evidence.ErrUpstream, err)
	}

	s.log.WithFields(logrus.Fields{
		"contentAddress": address,
		"size":           len(payload),
	}).Debug("pinned blob locally")
	return address, nil
}

func (s *LocalStore) PinJSON(ctx context.Context, value any, name string) (string, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return s.PinFile(ctx, payload, Metadata{Name: name})
}

func (s *LocalStore) GetMetadata(ctx context.Context, address string) (Entry, error) {
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(append(metaPrefix, address...))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, evidence.ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (s *LocalStore) ListByOwner(ctx context.Context, owner string) ([]Entry, error) {
	owner = evidence.NormalizeAddress(owner)
	prefix := append(append([]byte{}, ownerPrefix...), owner+":"...)

	var addresses []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			addresses = append(addresses, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(addresses))
	for _, address := range addresses {
		entry, err := s.GetMetadata(ctx, address)
		if err != nil {
			if errors.Is(err, evidence.ErrNotFound) {
				continue
			}
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *LocalStore) Unpin(ctx context.Context, address string) error {
	entry, err := s.GetMetadata(ctx, address)
	if err != nil && !errors.Is(err, evidence.ErrNotFound) {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(append(blobPrefix, address...)); err != nil {
			return err
		}
		if err := txn.Delete(append(metaPrefix, address...)); err != nil {
			return err
		}
		owner := evidence.NormalizeAddress(entry.Metadata.VictimAddress)
		if owner != "" {
			return txn.Delete(ownerKey(owner, address))
		}
		return nil
	})
}

func (s *LocalStore) Fetch(ctx context.Context, address string) ([]byte, error) {
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(append(blobPrefix, address...))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, evidence.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *LocalStore) GatewayURL(address string) string {
	return "/api/evidence/" + address + "/raw"
}

func ownerKey(owner, address string) []byte {
	key := append([]byte{}, ownerPrefix...)
	key = append(key, owner+":"...)
	return append(key, address...)
}

// contentAddress mints the CIDv0 for a payload.
func contentAddress(payload []byte) (string, error) {
	mh, err := multihash.Sum(payload, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return cid.NewCidV0(mh).String(), nil
}
