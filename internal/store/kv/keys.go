package kv

import (
	"strconv"
	"sync"
)

// Key layout. IDs are 16 hex digits so lexical key order is numeric order.
//
//	ct:{id}                       -> contentTypeRecord JSON
//	idx:ct:{app_label}.{model}    -> content type id
//	tag:{id}                      -> tagRecord JSON
//	idx:tag:key:{key}             -> tag id
//	item:{tag}:{ct}:{obj}         -> itemRecord JSON
//	ref:{ct}:{obj}:{seq}          -> tag id (entity tags in insertion order)
//	obj:{ct}:{tag}:{obj}          -> empty (tagged entities in id order)
const (
	contentTypePrefix   = "ct:"
	contentTypeByName   = "idx:ct:"
	tagPrefix           = "tag:"
	tagByKeyPrefix      = "idx:tag:key:"
	itemPrefix          = "item:"
	refPrefix           = "ref:"
	objectPrefix        = "obj:"
	contentTypeSequence = "seq:ct"
	tagSequence         = "seq:tag"
	itemSequence        = "seq:item"
)

// keyPool provides reusable byte slices for building database keys.
var keyPool = sync.Pool{
	New: func() any {
		// Longest key is a prefix plus three encoded IDs.
		return make([]byte, 0, 128)
	},
}

// buildKey joins prefix and parts with ':' into a pooled buffer.
// The returned slice is valid until releaseKey is called. Only use it for
// reads: a transaction holds on to keys passed to Set or Delete until commit,
// so those take a makeKey key instead.
//
// Usage:
//
//	key := buildKey(tagPrefix, hexID(tagID))
//	defer releaseKey(key)
//	item, err := txn.Get(key)
func buildKey(prefix string, parts ...string) []byte {
	buf, _ := keyPool.Get().([]byte)
	return appendKey(buf[:0], prefix, parts...)
}

// makeKey is buildKey on a fresh buffer, for keys handed to Set or Delete.
func makeKey(prefix string, parts ...string) []byte {
	n := len(prefix)
	for _, part := range parts {
		n += len(part) + 1
	}
	return appendKey(make([]byte, 0, n), prefix, parts...)
}

func appendKey(buf []byte, prefix string, parts ...string) []byte {
	buf = append(buf, prefix...)
	for i, part := range parts {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, part...)
	}
	return buf
}

// scanPrefix is buildKey for iterator prefixes: the parts followed by a trailing ':'.
func scanPrefix(prefix string, parts ...string) []byte {
	return append(buildKey(prefix, parts...), ':')
}

// releaseKey returns a key buffer to the pool for reuse.
// After calling this, the key slice must not be used.
func releaseKey(key []byte) {
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}

// hexID encodes an ID as fixed-width hex that sorts in signed order.
// The sign bit is flipped so negative IDs come before non-negative ones.
func hexID(id int64) string {
	s := strconv.FormatUint(uint64(id)^signBit, 16)
	if len(s) < 16 {
		s = "0000000000000000"[:16-len(s)] + s
	}
	return s
}

func parseHexID(s string) (int64, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, err
	}
	return int64(v ^ signBit), nil
}

const signBit = uint64(1) << 63
