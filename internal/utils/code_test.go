package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomCode(t *testing.T) {
	re := regexp.MustCompile(`^[0-9A-Z]{4}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		c, err := RandomCode(4)
		require.NoError(t, err)
		assert.Regexp(t, re, c)
		seen[c] = true
	}
	assert.Greater(t, len(seen), 1)
}
