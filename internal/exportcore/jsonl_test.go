package exportcore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoindexer/repoindexer/internal/model"
)

func sampleResult() *model.IndexResult {
	return &model.IndexResult{
		SpecKind: "filesystem",
		SpecPath: "/tmp/repo",
		Revision: "HEAD",
		Files: []model.FileMetadata{
			{Path: "main.go", SizeBytes: 42, ContentHash: "abc123", Language: "go"},
		},
		Chunks: []model.IndexChunk{
			{
				Chunk: model.Chunk{
					ID:   "chunk-1",
					Text: "package main",
					Metadata: model.ChunkMetadata{
						Origin: "lines", Path: "main.go", StartLine: 1, EndLine: 1,
					},
				},
				FileHash: "abc123",
			},
		},
		SecretFindings: []model.SecretFinding{
			{Path: "main.go", Line: 3, RuleID: "aws-key", Excerpt: "AKIA..."},
		},
	}
}

func TestJSONLEncoderOrdersRecordsFilesChunksFindings(t *testing.T) {
	var buf bytes.Buffer
	enc := NewJSONLEncoder(&buf)
	require.NoError(t, enc.Encode(sampleResult()))
	require.NoError(t, enc.Close())

	scanner := bufio.NewScanner(&buf)
	var kinds []RecordKind
	for scanner.Scan() {
		var rec jsonlRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		kinds = append(kinds, rec.Kind)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []RecordKind{KindFile, KindChunk, KindSecretFinding}, kinds)
}

func TestJSONLEncoderEmptyResultWritesNothing(t *testing.T) {
	var buf bytes.Buffer
	enc := NewJSONLEncoder(&buf)
	require.NoError(t, enc.Encode(&model.IndexResult{}))
	assert.Empty(t, buf.String())
}

func TestJSONLEncoderPayloadRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	enc := NewJSONLEncoder(&buf)
	require.NoError(t, enc.Encode(sampleResult()))

	line, err := buf.ReadString('\n')
	require.NoError(t, err)

	var rec jsonlRecord
	require.NoError(t, json.Unmarshal([]byte(line), &rec))
	assert.Equal(t, KindFile, rec.Kind)

	payload, ok := rec.Payload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "main.go", payload["Path"])
}
