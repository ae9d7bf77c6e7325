package repospec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpecKeyCarriesRevision(t *testing.T) {
	s := Spec{Kind: KindFilesystem, Path: "/repo"}
	key := s.Key("abc123")
	assert.Equal(t, StoreKey{Kind: KindFilesystem, Path: "/repo", Revision: "abc123"}, key)
}

func TestSpecKeyEmptyRevisionMeansMostRecent(t *testing.T) {
	s := Spec{Kind: KindVersionControlled, Path: "/repo"}
	key := s.Key("")
	assert.Equal(t, "", key.Revision)
}

func TestSpecKeyDistinguishesByKind(t *testing.T) {
	fsSpec := Spec{Kind: KindFilesystem, Path: "/repo"}
	archiveSpec := Spec{Kind: KindArchive, Path: "/repo"}
	assert.NotEqual(t, fsSpec.Key("HEAD"), archiveSpec.Key("HEAD"))
}
