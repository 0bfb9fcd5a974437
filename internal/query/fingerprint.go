package query

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Fingerprint is a 64-bit content hash of a key or value.
type Fingerprint uint64

// Fingerprinter lets a value supply its own content hash instead of the
// msgpack encoding of its exported fields.
type Fingerprinter interface {
	Fingerprint() uint64
}

var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// Encode returns the canonical msgpack encoding of v (map keys sorted).
func Encode(v any) ([]byte, error) {
	buf := bufPool.Get().(*bytes.Buffer) //nolint:errcheck
	buf.Reset()
	defer bufPool.Put(buf)

	enc := msgpack.NewEncoder(buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

// Of fingerprints v.
func Of(v any) (Fingerprint, error) {
	if fp, ok := v.(Fingerprinter); ok {
		return Fingerprint(fp.Fingerprint()), nil
	}
	data, err := Encode(v)
	if err != nil {
		return 0, err
	}
	return Fingerprint(xxhash.Sum64(data)), nil
}

// Combine folds several fingerprints into one, order-sensitive.
func Combine(fps ...Fingerprint) Fingerprint {
	d := xxhash.New()
	var b [8]byte
	for _, fp := range fps {
		for i := range 8 {
			b[i] = byte(fp >> (8 * i))
		}
		_, _ = d.Write(b[:]) //nolint:errcheck
	}
	return Fingerprint(d.Sum64())
}
