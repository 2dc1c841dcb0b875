// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

// Content-addressed chunk deduplication: a pack-offset hash bucket keyed by
// (CRC32, stored length), with a BLAKE3 fast-path hash checked before the
// final memcmp confirmation.

package vpk

import (
	"bytes"

	"github.com/zeebo/blake3"
)

// dedupKey identifies a candidate bucket of already-emitted chunks that
// might be byte-identical to a new one. Two different chunks can share a
// dedupKey (CRC32 collisions and incidental CRC matches of differing
// content both happen); the BLAKE3 hash and a full byte comparison resolve
// the bucket.
type dedupKey struct {
	crc32  uint32
	length uint64
}

// dedupCandidate is one previously emitted chunk kept available for
// matching against new chunk payloads during a single pack run.
type dedupCandidate struct {
	chunk   Chunk
	hash128 [32]byte
	data    []byte
}

// dedupTable buckets previously emitted chunk payloads by dedupKey so the
// packer can reuse an existing chunk's archive placement instead of
// writing duplicate bytes.
type dedupTable struct {
	buckets map[dedupKey][]dedupCandidate
}

func newDedupTable() *dedupTable {
	return &dedupTable{buckets: make(map[dedupKey][]dedupCandidate)}
}

// find returns the already-emitted Chunk whose payload is byte-identical
// to data, or false if no such chunk has been seen yet in this pack run.
func (t *dedupTable) find(data []byte, crc uint32) (Chunk, bool) {
	key := dedupKey{crc32: crc, length: uint64(len(data))}
	bucket, ok := t.buckets[key]
	if !ok {
		return Chunk{}, false
	}

	sum := blake3.Sum256(data)
	for _, cand := range bucket {
		if cand.hash128 != sum {
			continue
		}
		// FastEqual-style short-circuit: the hash already gives us extremely
		// high confidence, but a VPK chunk is still bytes the engine will
		// load verbatim, so confirm with a full comparison before reuse.
		if bytes.Equal(cand.data, data) {
			return cand.chunk, true
		}
	}

	return Chunk{}, false
}

// insert records a newly emitted chunk's payload as a future dedup
// candidate.
func (t *dedupTable) insert(data []byte, crc uint32, chunk Chunk) {
	key := dedupKey{crc32: crc, length: uint64(len(data))}
	sum := blake3.Sum256(data)
	t.buckets[key] = append(t.buckets[key], dedupCandidate{
		chunk:   chunk,
		hash128: sum,
		data:    data,
	})
}
