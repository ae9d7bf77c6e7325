// Package exportcore implements the exporter contracts (SPEC_FULL.md §6):
// the core emits an IndexResult, and encoders iterate files, then chunks,
// then secretFindings, each tagged by kind. Concrete exporter encoders are
// out of scope for the pipeline core (§1), but SPEC_FULL §2b commits the
// SQLite encoder's dependency to a home, so this package provides both the
// shared record-stream interface and two reference encoders: a
// line-delimited JSON encoder and a modernc.org/sqlite-backed encoder using
// the teacher's FTS5-virtual-table pattern, repurposed from vector search
// to plain chunk/file/finding export.
package exportcore

import "github.com/repoindexer/repoindexer/internal/model"

// RecordKind tags each record an Encoder writes.
type RecordKind string

const (
	KindFile          RecordKind = "file"
	KindChunk         RecordKind = "chunk"
	KindSecretFinding RecordKind = "secretFinding"
)

// Encoder consumes an IndexResult's record streams. Encode is called once;
// implementations iterate files, then chunks, then secretFindings in that
// order (SPEC_FULL.md §6).
type Encoder interface {
	Encode(result *model.IndexResult) error
	Close() error
}
