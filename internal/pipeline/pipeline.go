package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/repoindexer/repoindexer/internal/classify"
	"github.com/repoindexer/repoindexer/internal/enumerate"
	"github.com/repoindexer/repoindexer/internal/model"
	"github.com/repoindexer/repoindexer/internal/observability"
	"github.com/repoindexer/repoindexer/internal/repospec"
	"github.com/repoindexer/repoindexer/internal/snapshot"
	"github.com/repoindexer/repoindexer/internal/textproc"
	"github.com/repoindexer/repoindexer/internal/tokenizer"
)

var pipelineTracer = otel.Tracer("repoindexer/pipeline")

// Pipeline owns the resources a Run shares across files within one run,
// and across runs against the same manager: the content cache and the
// index store. Tokenizers and the classifier are process-wide by
// convention but may be swapped per Pipeline for test isolation.
type Pipeline struct {
	Tokenizers *tokenizer.Registry
	Classifier *classify.Classifier
	Cache      *ContentCache
	Store      *Store

	// ResumeCursors persists the resumeCursor across chained partial runs
	// against the same repository (SPEC_FULL §4.7, §5). Defaults to an
	// in-process store; a multi-worker deployment swaps in
	// RedisResumeCursorStore behind the same interface.
	ResumeCursors ResumeCursorStore
}

// New builds a Pipeline with sane defaults: the default tokenizer
// registry, a default classifier, and a fresh cache/store.
func New() *Pipeline {
	return &Pipeline{
		Tokenizers:    tokenizer.Default(),
		Classifier:    classify.New(classify.Options{}),
		Cache:         NewContentCache(0),
		Store:         NewStore(),
		ResumeCursors: NewInMemoryResumeCursorStore(),
	}
}

// Run executes the state machine in SPEC_FULL.md §4.7 for spec/opts.
func (p *Pipeline) Run(ctx context.Context, spec repospec.Spec, opts IndexOptions) (result *model.IndexResult, err error) {
	// 1. Opening
	snap, err := snapshot.Open(ctx, spec, snapshot.OpenOptions{
		Revision:           opts.Revision,
		SparsePatterns:     opts.SparsePatterns,
		EnableSubmodules:   opts.EnableSubmodules,
		EnableLargeFileExt: opts.EnableLargeFileExt,
	})
	if err != nil {
		return nil, err
	}
	// 9. Releasing — always executes, even on a later stage's failure.
	defer func() {
		if relErr := snap.Release(); relErr != nil && err == nil {
			err = relErr
		}
	}()

	revision := snap.ResolvedRevision
	if revision == "" {
		revision = "HEAD"
	}

	// 2. Planning
	var changed, deleted map[string]bool
	var baseResult *model.IndexResult
	if opts.Incremental {
		baseResult, changed, deleted, err = p.plan(snap, spec, opts)
		if err != nil {
			return nil, err
		}
	}

	// 4. Enumerating
	enumCtx, enumSpan := observability.InstrumentPipelineStage(ctx, pipelineTracer, "enumerating", snap.RootPath)
	entries, err := enumerate.Enumerate(enumCtx, snap.RootPath, enumerate.Options{
		WorkspaceRoots: opts.WorkspaceRoots,
		ExcludeRegexes: opts.ExcludeRegexes,
		SparsePatterns: opts.SparsePatterns,
		IncludePaths:   opts.IncludePaths,
	})
	if err != nil {
		observability.SetSpanError(enumCtx, err)
		enumSpan.End()
		return nil, err
	}
	enumSpan.End()

	// 5. Selecting candidates
	resumeCursorIn := opts.ResumeCursor
	if resumeCursorIn == "" && p.ResumeCursors != nil {
		if stored, cursorErr := p.ResumeCursors.Get(ctx, spec.Path); cursorErr == nil {
			resumeCursorIn = stored
		}
	}
	candidates := selectCandidates(entries, changed, resumeCursorIn, opts.MaxFilesPerRun)

	// 3. Seeding (carried-forward entries from the base index)
	seededFiles, seededChunks, seededSecrets, seededPolicy, seededTest, seededDeps := seedFromBase(baseResult, changed, deleted)

	// 6. Processing
	proc := &processor{
		root:       snap.RootPath,
		classifier: p.Classifier,
		normalizer: textproc.NewNormalizer(textproc.NormalizeOptions{StripBOM: true, LineEnding: "lf", TrimTrailingWhitespace: true, CollapseBlankLines: true}),
		sanitizer:  textproc.NewSanitizer(nil),
		dedup:      textproc.NewDeduplicator(),
		scanner:    textproc.NewSecretScanner(textproc.MergeSecretRules(opts.SecretPatterns)),
		policy:     textproc.NewPolicyEngine(opts.Policy),
		tokenizers: p.Tokenizers,
		cache:      p.Cache,
		budget:     newByteBudgetSemaphore(opts.MaxInFlightBytes),
		opts:       opts,
	}

	procCtx, procSpan := observability.InstrumentPipelineStage(ctx, pipelineTracer, "processing", snap.RootPath)
	outcomes, resumeCursor, err := runWorkers(procCtx, proc, candidates, opts.concurrency())
	if err != nil {
		observability.SetSpanError(procCtx, err)
		procSpan.End()
		return nil, err
	}
	procSpan.End()

	// 7. Assembling
	files := append([]model.FileMetadata(nil), seededFiles...)
	chunks := append([]model.IndexChunk(nil), seededChunks...)
	secretFindings := append([]model.SecretFinding(nil), seededSecrets...)
	policyFindings := append([]model.PolicyFinding(nil), seededPolicy...)
	testCoverage := cloneTestCoverage(seededTest)
	dependencyGraph := append([]model.DependencyEdge(nil), seededDeps...)
	fileContents := make(map[string]string)
	languageByHash := make(map[string]string)
	var symbolIndex []model.SymbolEntry

	for _, o := range outcomes {
		if o == nil {
			continue
		}
		if o.file.Path != "" {
			files = append(files, o.file)
			fileContents[o.file.Path] = o.content
			if o.file.Language != "" {
				languageByHash[o.file.ContentHash] = o.file.Language
			}
		}
		chunks = append(chunks, o.chunks...)
		secretFindings = append(secretFindings, o.secretFindings...)
		policyFindings = append(policyFindings, o.policyFindings...)
		dependencyGraph = append(dependencyGraph, o.dependencies...)
		if o.file.Path != "" {
			key := "source"
			if o.isTest {
				key = "test"
			}
			testCoverage[key] = append(testCoverage[key], o.file.Path)
		}
		for _, c := range o.chunks {
			symbolIndex = append(symbolIndex, extractSymbolEntries(c.Metadata.Path, c.Metadata.StartLine, c.Text)...)
		}
	}

	files, chunks = sortResult(files, chunks)
	secretFindings = sortSecretFindings(secretFindings)
	policyFindings = sortPolicyFindings(policyFindings)
	shards := assembleShards(chunks, opts.Sharding)

	result = &model.IndexResult{
		SpecKind:              string(spec.Kind),
		SpecPath:              spec.Path,
		Revision:              revision,
		Files:                 files,
		Chunks:                chunks,
		CreatedAt:             time.Now(),
		FileContentsByPath:    fileContents,
		LanguageByContentHash: languageByHash,
		SecretFindings:        secretFindings,
		PolicyFindings:        policyFindings,
		Shards:                shards,
		ResumeCursor:          resumeCursor,
		TestCoverage:          testCoverage,
		DependencyGraph:       dependencyGraph,
		SymbolIndex:           symbolIndex,
	}

	// 8. Memoizing
	if !opts.DryRun {
		p.Store.Put(spec, revision, result)
		if p.ResumeCursors != nil {
			_ = p.ResumeCursors.Set(ctx, spec.Path, resumeCursor)
		}
	}

	return result, nil
}

// plan resolves the incremental base and computes changed/deleted path
// sets (SPEC_FULL.md §4.7 stage 2).
func (p *Pipeline) plan(snap *snapshot.Snapshot, spec repospec.Spec, opts IndexOptions) (*model.IndexResult, map[string]bool, map[string]bool, error) {
	baseRevision := opts.BaseRevision
	var base *model.IndexResult
	if baseRevision != "" {
		b, ok := p.Store.Get(spec, baseRevision)
		if ok {
			base = b
		}
	} else if b, ok := p.Store.FindLatest(spec); ok {
		base = b
		baseRevision = b.Revision
	}
	if base == nil {
		return nil, nil, nil, nil
	}

	if spec.Kind != repospec.KindVersionControlled {
		// Plain directory without version control: treat everything as
		// changed (SPEC_FULL §4.7 stage 2).
		return base, nil, nil, nil
	}

	diff, err := snap.ListChangedFiles(baseRevision, snap.ResolvedRevision)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("plan: %w", err)
	}
	changed := make(map[string]bool, len(diff.Changed))
	for _, f := range diff.Changed {
		changed[f] = true
	}
	deleted := make(map[string]bool, len(diff.Deleted))
	for _, f := range diff.Deleted {
		deleted[f] = true
	}
	return base, changed, deleted, nil
}

// selectCandidates filters entries to those changed (if a diff is
// present), capped at maxFilesPerRun (SPEC_FULL.md §4.7 stage 5). The
// resumeCursor filter only applies when no changed set is supplied: it
// resumes a prior full/partial enumeration at the point it left off. An
// incremental run's changed set is already the exact work for this run,
// so the unrelated alphabetical cursor from a previous run must not
// filter any of it back out.
func selectCandidates(entries []enumerate.FileEntry, changed map[string]bool, resumeCursor string, maxFilesPerRun int) []enumerate.FileEntry {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	var out []enumerate.FileEntry
	for _, e := range entries {
		if changed != nil {
			if !changed[e.Path] {
				continue
			}
		} else if resumeCursor != "" && e.Path <= resumeCursor {
			continue
		}
		out = append(out, e)
	}
	if maxFilesPerRun > 0 && len(out) > maxFilesPerRun {
		out = out[:maxFilesPerRun]
	}
	return out
}

// seedFromBase carries forward base's entries for files neither changed
// nor deleted, unchanged and with their original chunk ids (SPEC_FULL.md
// §4.7 stage 3).
func seedFromBase(base *model.IndexResult, changed, deleted map[string]bool) (
	[]model.FileMetadata, []model.IndexChunk, []model.SecretFinding, []model.PolicyFinding, map[string][]string, []model.DependencyEdge,
) {
	if base == nil {
		return nil, nil, nil, nil, map[string][]string{}, nil
	}
	keep := func(path string) bool {
		return !changed[path] && !deleted[path]
	}

	var files []model.FileMetadata
	for _, f := range base.Files {
		if keep(f.Path) {
			files = append(files, f)
		}
	}
	var chunks []model.IndexChunk
	for _, c := range base.Chunks {
		if keep(c.Metadata.Path) {
			chunks = append(chunks, c.Clone())
		}
	}
	var secrets []model.SecretFinding
	for _, s := range base.SecretFindings {
		if keep(s.Path) {
			secrets = append(secrets, s)
		}
	}
	var policy []model.PolicyFinding
	for _, pf := range base.PolicyFindings {
		if keep(pf.Path) {
			policy = append(policy, pf)
		}
	}
	var deps []model.DependencyEdge
	for _, d := range base.DependencyGraph {
		if keep(d.FromPath) {
			deps = append(deps, d)
		}
	}
	testCoverage := make(map[string][]string, len(base.TestCoverage))
	for k, paths := range base.TestCoverage {
		for _, path := range paths {
			if keep(path) {
				testCoverage[k] = append(testCoverage[k], path)
			}
		}
	}
	return files, chunks, secrets, policy, testCoverage, deps
}

func cloneTestCoverage(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// runWorkers spawns up to concurrency workers pulling from a shared
// atomic cursor (SPEC_FULL.md §4.7 stage 6, Implementation note:
// errgroup.WithContext + atomic.Int64 cursor).
func runWorkers(ctx context.Context, proc *processor, candidates []enumerate.FileEntry, concurrency int) ([]*fileOutcome, string, error) {
	if len(candidates) == 0 {
		return nil, "", nil
	}
	if concurrency > len(candidates) {
		concurrency = len(candidates)
	}

	outcomes := make([]*fileOutcome, len(candidates))
	var cursor atomic.Int64
	var mu sync.Mutex
	highestDone := -1

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for {
				i := int(cursor.Add(1)) - 1
				if i >= len(candidates) {
					return nil
				}
				outcome, err := proc.processFile(gctx, candidates[i])
				if err != nil {
					return fmt.Errorf("process %s: %w", candidates[i].Path, err)
				}
				outcomes[i] = outcome

				mu.Lock()
				if i > highestDone {
					highestDone = i
				}
				mu.Unlock()
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	resumeCursor := ""
	if highestDone >= 0 {
		resumeCursor = candidates[highestDone].Path
	}
	return outcomes, resumeCursor, nil
}
