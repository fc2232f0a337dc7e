package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	got := DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "})
	assert.Equal(t, []string{"foo", "bar"}, got)
}

func TestDedupeCaseInsensitive(t *testing.T) {
	got := DedupeCaseInsensitive([]string{"Location mismatch", "location MISMATCH", "New device", " "})
	assert.Equal(t, []string{"Location mismatch", "New device"}, got)
}

func TestDedupeEmpty(t *testing.T) {
	assert.Empty(t, DedupeAndTrim(nil))
	assert.Empty(t, DedupeCaseInsensitive([]string{}))
}
