package pipelineerr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindNilReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
}

func TestKindMatchesSentinelDirectly(t *testing.T) {
	assert.Equal(t, "InvalidInput", Kind(ErrInvalidInput))
	assert.Equal(t, "SnapshotFailure", Kind(ErrSnapshotFailure))
	assert.Equal(t, "ForgeFailure", Kind(ErrForgeFailure))
}

func TestKindMatchesWrappedError(t *testing.T) {
	wrapped := fmt.Errorf("enumerate: %w", ErrFilteredOut)
	assert.Equal(t, "FilteredOut", Kind(wrapped))
}

func TestKindUnmatchedErrorReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", Kind(fmt.Errorf("some unrelated error")))
}

func TestKindCoversEveryTaxonomyEntry(t *testing.T) {
	cases := map[error]string{
		ErrInvalidInput:         "InvalidInput",
		ErrInvalidRevision:      "InvalidRevision",
		ErrSnapshotFailure:      "SnapshotFailure",
		ErrReadFailure:          "ReadFailure",
		ErrFilteredOut:          "FilteredOut",
		ErrPolicyDenied:         "PolicyDenied",
		ErrTokenizerUnavailable: "TokenizerUnavailable",
		ErrIndexMissing:         "IndexMissing",
		ErrNotFound:             "NotFound",
		ErrForgeFailure:         "ForgeFailure",
	}
	for err, want := range cases {
		assert.Equal(t, want, Kind(err))
	}
}
