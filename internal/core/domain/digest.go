package domain

import (
	"encoding/base64"
	"strings"

	"go.trai.ch/zerr"
)

// HashAlgorithm names the hash function behind a ContentDigest.
type HashAlgorithm string

// SHA256 is the only algorithm the archive-hashing scheme accepts for fixed-output fetches.
const SHA256 HashAlgorithm = "sha256"

// sha256Size is the digest width in bytes.
const sha256Size = 32

// nixBase32Alphabet omits e, o, u and t.
const nixBase32Alphabet = "0123456789abcdfghijklmnpqrsvwxyz"

// ContentDigest is a hash of a canonical archive.
type ContentDigest struct {
	Algorithm HashAlgorithm
	Sum       []byte
}

// NewSHA256Digest wraps a raw sha256 sum.
func NewSHA256Digest(sum []byte) (ContentDigest, error) {
	if len(sum) != sha256Size {
		return ContentDigest{}, zerr.With(zerr.Wrap(ErrInvalidDigest, "unexpected sum width"), "length", len(sum))
	}
	return ContentDigest{Algorithm: SHA256, Sum: append([]byte(nil), sum...)}, nil
}

// IsZero reports whether d holds no digest.
func (d ContentDigest) IsZero() bool {
	return len(d.Sum) == 0
}

// Base32 renders the sum in Nix base-32.
func (d ContentDigest) Base32() string {
	return NixBase32Encode(d.Sum)
}

// String renders "<algo>:<nix base-32>".
func (d ContentDigest) String() string {
	if d.IsZero() {
		return ""
	}
	return string(d.Algorithm) + ":" + d.Base32()
}

// SRI renders the subresource-integrity form "<algo>-<base64>".
func (d ContentDigest) SRI() string {
	if d.IsZero() {
		return ""
	}
	return string(d.Algorithm) + "-" + base64.StdEncoding.EncodeToString(d.Sum)
}

// Equal reports whether both digests carry the same algorithm and bytes.
func (d ContentDigest) Equal(other ContentDigest) bool {
	return d.Algorithm == other.Algorithm && string(d.Sum) == string(other.Sum)
}

// ParseContentDigest accepts "sha256:<nix32>", "sha256-<base64>" or a bare
// 52-character Nix base-32 sha256.
func ParseContentDigest(s string) (ContentDigest, error) {
	switch {
	case strings.HasPrefix(s, string(SHA256)+":"):
		s = strings.TrimPrefix(s, string(SHA256)+":")
	case strings.HasPrefix(s, string(SHA256)+"-"):
		sum, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, string(SHA256)+"-"))
		if err != nil {
			return ContentDigest{}, zerr.With(Classify(ErrInvalidDigest, err), "digest", s)
		}
		return NewSHA256Digest(sum)
	}

	sum, err := NixBase32Decode(s)
	if err != nil {
		return ContentDigest{}, zerr.With(err, "digest", s)
	}
	return NewSHA256Digest(sum)
}

// NixBase32Len is the encoded length of n raw bytes.
func NixBase32Len(n int) int {
	return (n*8 + 4) / 5
}

// NixBase32Encode encodes b the way Nix prints store hashes: five bits per
// character, starting from the most significant end of the little-endian bit
// string.
func NixBase32Encode(b []byte) string {
	n := NixBase32Len(len(b))
	out := make([]byte, 0, n)
	for i := n - 1; i >= 0; i-- {
		bit := i * 5
		idx := bit / 8
		shift := uint(bit % 8)
		c := b[idx] >> shift
		if idx+1 < len(b) {
			c |= b[idx+1] << (8 - shift)
		}
		out = append(out, nixBase32Alphabet[c&0x1f])
	}
	return string(out)
}

// NixBase32Decode reverses NixBase32Encode.
func NixBase32Decode(s string) ([]byte, error) {
	size := len(s) * 5 / 8
	if NixBase32Len(size) != len(s) {
		return nil, zerr.With(zerr.Wrap(ErrInvalidDigest, "unexpected length"), "length", len(s))
	}

	out := make([]byte, size)
	for i := 0; i < len(s); i++ {
		c := s[len(s)-1-i]
		digit := strings.IndexByte(nixBase32Alphabet, c)
		if digit < 0 {
			return nil, zerr.With(zerr.Wrap(ErrInvalidDigest, "character outside alphabet"), "char", string(c))
		}
		bit := i * 5
		idx := bit / 8
		shift := uint(bit % 8)
		out[idx] |= byte(digit << shift)
		carry := byte(digit >> (8 - shift))
		if idx+1 < size {
			out[idx+1] |= carry
		} else if carry != 0 {
			return nil, zerr.Wrap(ErrInvalidDigest, "non-zero padding bits")
		}
	}
	return out, nil
}
