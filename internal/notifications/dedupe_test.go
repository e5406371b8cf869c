package notifications

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupe(t *testing.T) {
	assert.ElementsMatch(t, []string{"a", "b"}, Dedupe([]string{"a", "a", "b"}))
	assert.Equal(t, []string{"x", "y", "z"}, Dedupe([]string{"x", "y", "x", "", "z", "y"}))
	assert.Empty(t, Dedupe(nil))
}

func TestDedupe_Idempotent(t *testing.T) {
	inputs := [][]string{
		{},
		{"t1"},
		{"t1", "t1", "t1"},
		{"t3", "t1", "t2", "t1", "t3"},
	}
	for _, in := range inputs {
		once := Dedupe(in)
		assert.Equal(t, once, Dedupe(once))
	}
}
