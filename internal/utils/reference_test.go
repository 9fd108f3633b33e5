package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateReference_Format(t *testing.T) {
	ref, err := GenerateReference()
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^REF-\d{14}-[A-HJ-NP-Z2-9]{10}$`)
	assert.Regexp(t, pattern, ref)

	// The middle segment is the generation timestamp.
	ts, err := time.ParseInLocation("20060102150405", ref[4:18], time.Local)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestGenerateReference_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		ref, err := GenerateReference()
		require.NoError(t, err)
		assert.False(t, seen[ref], "reference %s generated twice", ref)
		seen[ref] = true
	}
}
