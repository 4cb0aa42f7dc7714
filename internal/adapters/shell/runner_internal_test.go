package shell

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveEnvironment(t *testing.T) {
	t.Parallel()

	got := resolveEnvironment(
		[]string{"PATH=/usr/bin", "HOME=/home/test", "MALFORMED"},
		map[string]string{"HOME": "/override", "GIT_TERMINAL_PROMPT": "0"},
	)
	assert.Equal(t, []string{"GIT_TERMINAL_PROMPT=0", "HOME=/override", "PATH=/usr/bin"}, got)
}

func TestTail(t *testing.T) {
	t.Parallel()

	buf := &Tail{limit: 8}
	n, err := buf.Write([]byte("hello "))
	assert.NoError(t, err)
	assert.Equal(t, 6, n)
	_, _ = buf.Write([]byte("world"))
	assert.Equal(t, "lo world", buf.String())

	n, _ = buf.Write([]byte(strings.Repeat("x", 20)))
	assert.Equal(t, 20, n)
	assert.Equal(t, "xxxxxxxx", buf.String())
}
