package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/repoindexer/repoindexer/internal/chunk"
	"github.com/repoindexer/repoindexer/internal/classify"
	"github.com/repoindexer/repoindexer/internal/enumerate"
	"github.com/repoindexer/repoindexer/internal/model"
	"github.com/repoindexer/repoindexer/internal/security"
	"github.com/repoindexer/repoindexer/internal/textproc"
	"github.com/repoindexer/repoindexer/internal/tokenizer"
)

// fileOutcome is one worker's result for a single candidate file; nil
// means the file was skipped (not a run failure).
type fileOutcome struct {
	file           model.FileMetadata
	content        string
	chunks         []model.IndexChunk
	secretFindings []model.SecretFinding
	policyFindings []model.PolicyFinding
	dependencies   []model.DependencyEdge
	isTest         bool
}

// processor holds the per-run, non-shared stateful helpers §5 requires to
// be owned by the run and not shared across runs (normalizer, sanitizer,
// dedup, scanner, policy engine are all constructed once per Run call by
// the caller and passed in here).
type processor struct {
	root        string
	classifier  *classify.Classifier
	normalizer  *textproc.Normalizer
	sanitizer   *textproc.Sanitizer
	dedup       *textproc.Deduplicator
	scanner     *textproc.SecretScanner
	policy      *textproc.PolicyEngine
	tokenizers  *tokenizer.Registry
	cache       *ContentCache
	budget      *byteBudgetSemaphore
	opts        IndexOptions
}

// processFile runs stages 6.a-6.k of SPEC_FULL.md §4.7 for one enumerated
// file. A nil, nil return means the file was intentionally skipped.
func (p *processor) processFile(ctx context.Context, entry enumerate.FileEntry) (*fileOutcome, error) {
	if err := p.budget.acquire(ctx, entry.SizeBytes); err != nil {
		return nil, err
	}
	defer p.budget.release(entry.SizeBytes)

	absPath, err := safeJoinRoot(p.root, entry.Path)
	if err != nil {
		return nil, nil
	}

	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, nil // ErrReadFailure: always swallowed per file
	}

	cls := p.classifier.Classify(entry.Path, entry.SizeBytes, raw)
	if cls.Skip() {
		return nil, nil
	}

	rawText := string(raw)
	preSanitize, _ := p.normalizer.Normalize(rawText)
	processedText, _ := p.sanitizer.Sanitize(preSanitize)

	if finding, denied := p.policy.EvaluateLicense(entry.Path, processedText); denied {
		return &fileOutcome{policyFindings: []model.PolicyFinding{finding}}, nil
	}

	redacted, piiFindings := p.policy.RedactPII(entry.Path, processedText)

	sum := sha256.Sum256([]byte(redacted))
	contentHash := hex.EncodeToString(sum[:])
	language := languageForPath(entry.Path)

	if cached, ok := p.cache.Get(contentHash, entry.Path); ok {
		return &fileOutcome{
			file:           cached.file,
			content:        redacted,
			chunks:         cached.chunks,
			secretFindings: cached.secretFindings,
			policyFindings: append(cached.policyFindings, piiFindings...),
			dependencies:   extractDependencyEdges(entry.Path, redacted),
			isTest:         isTestFile(entry.Path),
		}, nil
	}

	var secretFindings []model.SecretFinding
	if p.opts.ScanSecrets {
		secretFindings = p.scanner.Scan(entry.Path, preSanitize)
	}

	chunkingOpts, tokenizerID := p.opts.resolvedChunkingFor(language)
	tok, err := p.tokenizers.Resolve(tokenizerID)
	if err != nil {
		return nil, fmt.Errorf("process %s: %w", entry.Path, err)
	}

	rawChunks, err := chunk.Chunk(ctx, chunk.Input{Text: redacted, Path: entry.Path, Language: language}, chunkingOpts, tok)
	if err != nil {
		return nil, nil // ErrFilteredOut-equivalent: chunk failure skips the file
	}

	indexChunks := make([]model.IndexChunk, 0, len(rawChunks))
	for _, c := range rawChunks {
		chunkHash := sha256.Sum256([]byte(c.Text))
		chunkContentHash := hex.EncodeToString(chunkHash[:])
		if _, dup := p.dedup.Observe(chunkContentHash, c.ID); dup {
			continue
		}
		indexChunks = append(indexChunks, model.IndexChunk{Chunk: c, FileHash: contentHash})
	}

	fm := model.FileMetadata{
		Path:        entry.Path,
		SizeBytes:   entry.SizeBytes,
		ContentHash: contentHash,
		Language:    language,
		Executable:  entry.Executable,
	}

	outcome := &fileOutcome{
		file:           fm,
		content:        redacted,
		chunks:         indexChunks,
		secretFindings: secretFindings,
		policyFindings: piiFindings,
		dependencies:   extractDependencyEdges(entry.Path, redacted),
		isTest:         isTestFile(entry.Path),
	}

	if !p.opts.DryRun {
		p.cache.Put(contentHash, entry.Path, cacheEntry{
			file:           fm,
			chunks:         indexChunks,
			secretFindings: secretFindings,
			policyFindings: piiFindings,
		})
	}

	return outcome, nil
}

func safeJoinRoot(root, relPath string) (string, error) {
	return security.SafeJoin(root, relPath)
}
