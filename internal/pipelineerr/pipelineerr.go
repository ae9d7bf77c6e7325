// Package pipelineerr defines the semantic error taxonomy shared by the
// snapshot, enumeration, chunking, and indexing packages. Errors are plain
// sentinel values wrapped with fmt.Errorf so callers can use errors.Is/As;
// there is no bespoke exception hierarchy.
package pipelineerr

import "errors"

// Sentinel errors matching the kinds in SPEC_FULL.md §7. Wrap with
// fmt.Errorf("stage: %w", ErrX) at the call site that detects the condition.
var (
	// ErrInvalidInput covers a missing required argument, an unknown chunk
	// strategy, or an unsupported archive kind.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidRevision covers an unresolvable reference or an unreachable
	// merge base.
	ErrInvalidRevision = errors.New("invalid revision")

	// ErrSnapshotFailure covers extraction or worktree creation failures.
	ErrSnapshotFailure = errors.New("snapshot failure")

	// ErrReadFailure covers a file that could not be read as text. Always
	// swallowed at the per-file level; never fails a run.
	ErrReadFailure = errors.New("read failure")

	// ErrFilteredOut marks a file classified as binary, generated, or large.
	// Swallowed at the per-file level.
	ErrFilteredOut = errors.New("filtered out")

	// ErrPolicyDenied marks a file excluded by the license policy pass.
	// Recorded as a PolicyFinding; the file is omitted, not a run failure.
	ErrPolicyDenied = errors.New("policy denied")

	// ErrTokenizerUnavailable is returned by a lazy tokenizer factory whose
	// optional backend could not be constructed.
	ErrTokenizerUnavailable = errors.New("tokenizer unavailable")

	// ErrIndexMissing is returned when a query references a revision with
	// no stored index.
	ErrIndexMissing = errors.New("index missing")

	// ErrNotFound is returned when a chunk, file, or reference is absent
	// from a loaded index.
	ErrNotFound = errors.New("not found")

	// ErrForgeFailure marks a forge API call failure. Non-fatal in the
	// pull-request workflow; logged and reflected in returned booleans.
	ErrForgeFailure = errors.New("forge failure")
)

// Kind classifies err against the sentinel table by walking its Unwrap
// chain. Returns the zero value ("") if err does not match any kind.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrInvalidRevision):
		return "InvalidRevision"
	case errors.Is(err, ErrSnapshotFailure):
		return "SnapshotFailure"
	case errors.Is(err, ErrReadFailure):
		return "ReadFailure"
	case errors.Is(err, ErrFilteredOut):
		return "FilteredOut"
	case errors.Is(err, ErrPolicyDenied):
		return "PolicyDenied"
	case errors.Is(err, ErrTokenizerUnavailable):
		return "TokenizerUnavailable"
	case errors.Is(err, ErrIndexMissing):
		return "IndexMissing"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrForgeFailure):
		return "ForgeFailure"
	default:
		return ""
	}
}
