package git

import (
	"strings"

	"go.trai.ch/gridlock/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	symrefPrefix = "ref: "
	peeledSuffix = "^{}"
)

// ParseLsRemote parses the output of "git ls-remote --symref". Peeled tag
// lines replace the annotated tag object with the commit it points at.
func ParseLsRemote(out []byte) (domain.RemoteRefs, error) {
	refs := domain.RemoteRefs{Refs: make(map[string]string)}
	peeled := make(map[string]string)

	for i, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}

		left, name, ok := strings.Cut(line, "\t")
		if !ok || name == "" {
			return domain.RemoteRefs{}, malformedListing(i+1, line)
		}

		if target, isSymref := strings.CutPrefix(left, symrefPrefix); isSymref {
			if name == domain.HeadRef {
				refs.Head = target
			}
			continue
		}

		if !isObjectID(left) {
			return domain.RemoteRefs{}, malformedListing(i+1, line)
		}

		if base, isPeeled := strings.CutSuffix(name, peeledSuffix); isPeeled {
			peeled[base] = left
			continue
		}
		refs.Refs[name] = left
	}

	for name, commit := range peeled {
		refs.Refs[name] = commit
	}

	return refs, nil
}

func malformedListing(line int, text string) error {
	err := zerr.With(zerr.Wrap(domain.ErrRemoteUnavailable, "malformed ls-remote output"), "line", line)
	return zerr.With(err, "text", text)
}

// isObjectID accepts full sha1 or sha256 object names in lowercase hex.
func isObjectID(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
