// Package digest computes content digests of canonical archives.
package digest

import (
	"encoding/hex"
	"io"

	godigest "github.com/opencontainers/go-digest"
	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/gridlock/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Digester = (*Computer)(nil)

// Computer hashes archives with sha256 and renders them in Nix base-32.
type Computer struct{}

// New creates a new Computer.
func New() *Computer {
	return &Computer{}
}

// Digest streams archive through sha256.
func (c *Computer) Digest(archive io.Reader) (domain.ContentDigest, error) {
	digester := godigest.SHA256.Digester()
	if _, err := io.Copy(digester.Hash(), archive); err != nil {
		return domain.ContentDigest{}, domain.Classify(domain.ErrIO, zerr.Wrap(err, "failed to read archive"))
	}
	return fromOCI(digester.Digest())
}

func fromOCI(d godigest.Digest) (domain.ContentDigest, error) {
	if err := d.Validate(); err != nil {
		return domain.ContentDigest{}, zerr.Wrap(err, "invalid sha256 digest")
	}
	sum, err := hex.DecodeString(d.Encoded())
	if err != nil {
		return domain.ContentDigest{}, zerr.Wrap(err, "invalid sha256 digest")
	}
	return domain.NewSHA256Digest(sum)
}
