package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest - фиксированный 256 битный хеш
type Digest [32]byte

// DigestBytes hashes raw bytes.
func DigestBytes(b []byte) Digest {
	return sha256.Sum256(b)
}

// DigestString hashes a string.
func DigestString(s string) Digest {
	return sha256.Sum256([]byte(s))
}

// Combine строит агрегированный хеш: H( content || dep1 || dep2 ... ).
// Порядок deps должен быть детерминированным.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
