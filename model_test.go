package docuchat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestConfigYAMLUnmarshal(t *testing.T) {
	assert := assert.New(t)

	input := `index:
  path: /var/lib/docuchat
  dimension: 384
segmenter:
  chunkSize: 400
  overlap: 40
retrieval:
  topK: 3
embedding:
  model: text-embedding-3-small
generation:
  model: llama-3.3-70b-versatile`

	var config Config
	if err := yaml.Unmarshal([]byte(input), &config); err != nil {
		assert.Fail(err.Error())
		return
	}

	assert.Equal("/var/lib/docuchat", config.Index.Path)
	assert.Equal(384, config.Index.Dimension)
	assert.Equal(400, config.Segmenter.ChunkSize)
	assert.Equal(40, config.Segmenter.Overlap)
	assert.Equal(3, config.Retrieval.TopK)
	assert.Equal("text-embedding-3-small", config.Embedding.Model)
	assert.Equal("llama-3.3-70b-versatile", config.Generation.Model)
}

func TestSegmenterConfigDefaults(t *testing.T) {
	assert := assert.New(t)

	opts := SegmenterConfig{}.options()
	assert.Equal(500, opts.ChunkSize)
	assert.Equal(50, opts.Overlap)

	opts = SegmenterConfig{ChunkSize: 200, Overlap: 20}.options()
	assert.Equal(200, opts.ChunkSize)
	assert.Equal(20, opts.Overlap)
}

func TestPayloadKinds(t *testing.T) {
	assert := assert.New(t)

	ingestion := &IngestionCompletePayload{DocumentName: "a.txt"}
	assert.Equal(KindIngestionComplete, ingestion.Kind())

	results := &QueryResultsPayload{Query: "q"}
	assert.Equal(KindQueryResults, results.Kind())
}

func TestIngestReceiptAbort(t *testing.T) {
	assert := assert.New(t)

	receipt := &IngestReceipt{
		Document: "a.txt",
		State:    StateReceived,
	}

	receipt.abort(ErrNoChunks)
	assert.Equal(StateAborted, receipt.State)
	assert.Equal(ErrNoChunks.Error(), receipt.Reason)
	assert.False(receipt.Persisted)
}
