// Package repospec defines the RepositorySpec value shared by the snapshot
// provider, the indexing pipeline, and the IndexManager façade.
package repospec

// Kind identifies how a repository's content is materialized.
type Kind string

const (
	KindVersionControlled Kind = "version-controlled"
	KindFilesystem        Kind = "filesystem"
	KindArchive           Kind = "archive"
)

// ArchiveKind identifies the archive container format for a KindArchive spec.
type ArchiveKind string

const (
	ArchiveTar     ArchiveKind = "tar"
	ArchiveTarGzip ArchiveKind = "tar.gz"
	ArchiveZip     ArchiveKind = "zip"
)

// Spec is immutable once an index has been produced under it; the pipeline
// and index store both key off its fields verbatim.
type Spec struct {
	Kind Kind `yaml:"kind"`
	// Path is a local filesystem path: the repository working tree for
	// KindVersionControlled/KindFilesystem, or the archive file for
	// KindArchive.
	Path string `yaml:"path"`
	// URL is the remote clone URL, set only when the snapshot provider must
	// fetch rather than open a local working tree.
	URL string `yaml:"url,omitempty"`
	// ArchiveKind is set for KindArchive; if empty, detected from Path's
	// suffix.
	ArchiveKind ArchiveKind `yaml:"archiveKind,omitempty"`
}

// StoreKey is the index store's lookup key: (kind, path, revision). An empty
// revision means "most recent."
type StoreKey struct {
	Kind     Kind
	Path     string
	Revision string
}

func (s Spec) Key(revision string) StoreKey {
	return StoreKey{Kind: s.Kind, Path: s.Path, Revision: revision}
}
