package pipeline

import (
	"fmt"
	"sort"

	"github.com/repoindexer/repoindexer/internal/model"
)

// assembleShards groups chunks into shards obeying sharding's limits, in
// path-sorted chunk order (SPEC_FULL.md §4.7 Assembling). A zero-value
// Sharding produces a single implicit shard.
func assembleShards(chunks []model.IndexChunk, sharding Sharding) []model.Shard {
	if sharding.MaxChunksPerShard <= 0 && sharding.MaxBytesPerShard <= 0 {
		if len(chunks) == 0 {
			return nil
		}
		ids := make([]string, len(chunks))
		var size int64
		for i, c := range chunks {
			ids[i] = c.ID
			size += int64(len(c.Text))
		}
		return []model.Shard{{ID: shardID(0), ChunkIDs: ids, ChunkCount: len(ids), ApproxSize: size}}
	}

	var shards []model.Shard
	var ids []string
	var size int64

	flush := func() {
		if len(ids) == 0 {
			return
		}
		shards = append(shards, model.Shard{
			ID:         shardID(len(shards)),
			ChunkIDs:   ids,
			ChunkCount: len(ids),
			ApproxSize: size,
		})
		ids = nil
		size = 0
	}

	for _, c := range chunks {
		chunkSize := int64(len(c.Text))
		wouldExceedCount := sharding.MaxChunksPerShard > 0 && len(ids)+1 > sharding.MaxChunksPerShard
		wouldExceedBytes := sharding.MaxBytesPerShard > 0 && size+chunkSize > sharding.MaxBytesPerShard
		if len(ids) > 0 && (wouldExceedCount || wouldExceedBytes) {
			flush()
		}
		ids = append(ids, c.ID)
		size += chunkSize
	}
	flush()
	return shards
}

// shardID names the shard at index (0-based) using the spec's 1-based,
// uncapped "shard-N" numbering (SPEC_FULL.md §4.7: shard-1...shard-N).
func shardID(index int) string {
	return fmt.Sprintf("shard-%d", index+1)
}

// sortResult sorts files and chunks path-first (SPEC_FULL.md §4.7
// Assembling "Ordering guarantees") and renumbers chunkIndex/totalChunks
// per file.
func sortResult(files []model.FileMetadata, chunks []model.IndexChunk) ([]model.FileMetadata, []model.IndexChunk) {
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Metadata.Path != chunks[j].Metadata.Path {
			return chunks[i].Metadata.Path < chunks[j].Metadata.Path
		}
		return chunks[i].Metadata.StartLine < chunks[j].Metadata.StartLine
	})

	counts := make(map[string]int)
	for _, c := range chunks {
		counts[c.Metadata.Path]++
	}
	seen := make(map[string]int)
	for i := range chunks {
		path := chunks[i].Metadata.Path
		chunks[i].Metadata.ChunkIndex = seen[path]
		chunks[i].Metadata.TotalChunks = counts[path]
		seen[path]++
	}
	return files, chunks
}

func sortSecretFindings(findings []model.SecretFinding) []model.SecretFinding {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		return findings[i].Line < findings[j].Line
	})
	return findings
}

func sortPolicyFindings(findings []model.PolicyFinding) []model.PolicyFinding {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		return findings[i].Message < findings[j].Message
	})
	return findings
}
