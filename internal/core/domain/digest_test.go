package domain_test

import (
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gridlock/internal/core/domain"
)

const emptyNix32 = "0mdqa9w1p6cmli6976v4wi0sw9r4p5prkj7lzfd1877wk11c9c73"

func TestNixBase32Encode_EmptySHA256(t *testing.T) {
	t.Parallel()

	sum := sha256.Sum256(nil)
	assert.Equal(t, emptyNix32, domain.NixBase32Encode(sum[:]))
}

func TestNixBase32Encode_LengthAndAlphabet(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "a", "hello", strings.Repeat("x", 1000)} {
		sum := sha256.Sum256([]byte(input))
		got := domain.NixBase32Encode(sum[:])
		assert.Len(t, got, 52)
		assert.False(t, strings.ContainsAny(got, "eotuABCDEFGHIJKLMNOPQRSTUVWXYZ"), "%q contains characters outside the alphabet", got)
	}
}

func TestNixBase32_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, input := range [][]byte{{0x00}, {0xff, 0x01}, []byte("gridlock"), make([]byte, 20)} {
		enc := domain.NixBase32Encode(input)
		dec, err := domain.NixBase32Decode(enc)
		require.NoError(t, err, "decode %q", enc)
		assert.Equal(t, input, dec)
	}
}

func TestNixBase32Decode_Rejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"bad char":   "0mdqa9w1p6cmli6976v4wi0sw9r4p5prkj7lzfd1877wk11c9c7e",
		"bad length": "0md",
		"high bits":  "zmdqa9w1p6cmli6976v4wi0sw9r4p5prkj7lzfd1877wk11c9c73",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := domain.NixBase32Decode(in)
			assert.Error(t, err)
		})
	}
}

func TestContentDigest_Renderings(t *testing.T) {
	t.Parallel()

	sum := sha256.Sum256(nil)
	d, err := domain.NewSHA256Digest(sum[:])
	require.NoError(t, err)

	assert.Equal(t, "sha256:"+emptyNix32, d.String())
	assert.Equal(t, "sha256-47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=", d.SRI())

	for _, form := range []string{d.String(), d.SRI(), d.Base32()} {
		parsed, err := domain.ParseContentDigest(form)
		require.NoError(t, err, "parse %q", form)
		assert.True(t, parsed.Equal(d), "parse %q = %v", form, parsed)
	}
}

func TestNewSHA256Digest_WrongWidth(t *testing.T) {
	t.Parallel()

	_, err := domain.NewSHA256Digest([]byte{1, 2, 3})
	assert.Error(t, err)
}
