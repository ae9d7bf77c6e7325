package exportcore

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/repoindexer/repoindexer/internal/model"
)

// jsonlRecord is one line-delimited JSON record: a kind tag plus the
// payload, so a stream reader can dispatch without a schema registry.
type jsonlRecord struct {
	Kind    RecordKind `json:"kind"`
	Payload any        `json:"payload"`
}

// JSONLEncoder streams an IndexResult as newline-delimited JSON, one record
// per line, tagged by kind (SPEC_FULL.md §6 "export/jsonl").
type JSONLEncoder struct {
	w   io.Writer
	enc *json.Encoder
}

// NewJSONLEncoder wraps w. w is not closed by Close; callers own it.
func NewJSONLEncoder(w io.Writer) *JSONLEncoder {
	return &JSONLEncoder{w: w, enc: json.NewEncoder(w)}
}

func (e *JSONLEncoder) Encode(result *model.IndexResult) error {
	for _, f := range result.Files {
		if err := e.enc.Encode(jsonlRecord{Kind: KindFile, Payload: f}); err != nil {
			return fmt.Errorf("exportcore: encode file %s: %w", f.Path, err)
		}
	}
	for _, c := range result.Chunks {
		if err := e.enc.Encode(jsonlRecord{Kind: KindChunk, Payload: c}); err != nil {
			return fmt.Errorf("exportcore: encode chunk %s: %w", c.ID, err)
		}
	}
	for _, s := range result.SecretFindings {
		if err := e.enc.Encode(jsonlRecord{Kind: KindSecretFinding, Payload: s}); err != nil {
			return fmt.Errorf("exportcore: encode secret finding %s: %w", s.Path, err)
		}
	}
	return nil
}

func (e *JSONLEncoder) Close() error { return nil }
