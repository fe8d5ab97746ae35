package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryFingerprint(t *testing.T) {
	a := QueryFingerprint("How many floats are in the Arabian Sea?")
	b := QueryFingerprint("  how many   FLOATS are in the arabian sea?\n")

	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, QueryFingerprint("How many profiles are in the Arabian Sea?"))
}
