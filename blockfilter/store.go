// Copyright 2021 Datafuse Labs.
// SPDX-License-Identifier: Apache-2.0.

package blockfilter

import (
	"encoding/binary"
	"fmt"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/cockroachdb/pebble"

	"github.com/datafuselabs/fusequery-core/internal/xorfilter"
)

// Store persists one encoded Xor8 filter per (partition, column) pair on
// disk via pebble, with a fastcache-backed layer in front holding the encoded
// bytes so a hot partition's filters skip the pebble read; every Get still
// decodes the filter from those bytes.
// Grounded on eth/bloombits.libevm.go's matcher, which keeps a retrieved
// bloom-bits section cache in front of its backing chain database.
type Store struct {
	db    *pebble.DB
	cache *fastcache.Cache
}

// OpenStore opens (or creates) a pebble-backed filter store at dir, with an
// in-memory cache of cacheBytes for encoded filters.
func OpenStore(dir string, cacheBytes int) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errInternal("opening filter store at %q: %v", dir, err)
	}
	return &Store{db: db, cache: fastcache.New(cacheBytes)}, nil
}

// Close releases the store's resources.
func (s *Store) Close() error {
	return s.db.Close()
}

func storeKey(partitionID uint64, column string) []byte {
	key := make([]byte, 8+len(column))
	binary.BigEndian.PutUint64(key[:8], partitionID)
	copy(key[8:], column)
	return key
}

// cacheKey namespaces the in-memory cache by the same coordinates, prefixed
// so it can share a fastcache instance with other callers without colliding.
func cacheKey(partitionID uint64, column string) []byte {
	return append([]byte(fmt.Sprintf("blockfilter/%d/", partitionID)), column...)
}

// Put writes the encoded filter for (partitionID, column), populating the
// read cache eagerly since a writer is very likely to be the next reader
// (e.g. a just-ingested partition immediately probed by a concurrent scan).
func (s *Store) Put(partitionID uint64, column string, filter *xorfilter.Xor8) error {
	encoded := filter.Encode()
	if err := s.db.Set(storeKey(partitionID, column), encoded, pebble.Sync); err != nil {
		return errInternal("writing filter for partition %d column %q: %v", partitionID, column, err)
	}
	s.cache.Set(cacheKey(partitionID, column), encoded)
	return nil
}

// Get reads and decodes the filter for (partitionID, column), returning
// (nil, nil) if no filter was ever stored for that pair.
func (s *Store) Get(partitionID uint64, column string) (*xorfilter.Xor8, error) {
	ck := cacheKey(partitionID, column)
	if cached, ok := s.cache.HasGet(nil, ck); ok {
		return xorfilter.Decode(cached)
	}

	value, closer, err := s.db.Get(storeKey(partitionID, column))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errInternal("reading filter for partition %d column %q: %v", partitionID, column, err)
	}
	defer closer.Close()

	encoded := append([]byte(nil), value...)
	s.cache.Set(ck, encoded)
	return xorfilter.Decode(encoded)
}
