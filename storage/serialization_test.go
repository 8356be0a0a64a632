package storage

import (
	"testing"
	"time"

	"github.com/poiesic/paperbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotNil(t, data)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.Error(t, err)
}

func TestMarshalUnmarshalPaper(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name  string
		paper *core.Paper
	}{
		{
			name: "minimal paper",
			paper: &core.Paper{
				Id:         core.ID(1),
				FullText:   "Some paper text.",
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
		{
			name: "paper with everything",
			paper: &core.Paper{
				Id:         core.IDFromContent("full text of the paper"),
				FileName:   "2301.00001-attention.pdf",
				FullText:   "Full text of the paper. Spanning multiple sentences.",
				PageCount:  12,
				InsertedAt: now,
				UpdatedAt:  now.Add(time.Hour),
			},
		},
		{
			name: "paper with unicode text",
			paper: &core.Paper{
				Id:         core.ID(7),
				FileName:   "résumé.pdf",
				FullText:   "Le café est à côté de l'école. Übersetzung folgt.",
				PageCount:  1,
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalPaper(tt.paper)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalPaper(data)
			require.NoError(t, err)
			assert.Equal(t, tt.paper.Id, decoded.Id)
			assert.Equal(t, tt.paper.FileName, decoded.FileName)
			assert.Equal(t, tt.paper.FullText, decoded.FullText)
			assert.Equal(t, tt.paper.PageCount, decoded.PageCount)
			assert.True(t, tt.paper.InsertedAt.Equal(decoded.InsertedAt), "InsertedAt mismatch")
			assert.True(t, tt.paper.UpdatedAt.Equal(decoded.UpdatedAt), "UpdatedAt mismatch")
		})
	}
}

func TestMarshalUnmarshalChunk(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name  string
		chunk *core.Chunk
	}{
		{
			name: "minimal chunk",
			chunk: &core.Chunk{
				Id:         core.ID(1),
				PaperId:    core.ID(42),
				Text:       "A chunk.",
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
		{
			name: "chunk with vector and metadata",
			chunk: &core.Chunk{
				Id:      core.ID(2),
				PaperId: core.ID(42),
				Text:    "Chunk with an embedding attached.",
				Vector:  []float32{0.1, -0.2, 0.3, -0.4, 0.5},
				Metadata: core.ChunkMetadata{
					ChunkIndex: 3,
					PageNumber: 2,
				},
				InsertedAt: now,
				UpdatedAt:  now,
			},
		},
		{
			name: "placeholder chunk with extra metadata",
			chunk: &core.Chunk{
				Id:      core.ID(3),
				PaperId: core.ID(99),
				Text:    "Degraded embedding.",
				Vector:  []float32{0.5, 0.5},
				Metadata: core.ChunkMetadata{
					ChunkIndex:  0,
					PageNumber:  0,
					Placeholder: true,
					Extra:       map[string]string{"source": "offline"},
				},
				InsertedAt: now,
				UpdatedAt:  now.Add(time.Minute),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalChunk(tt.chunk)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalChunk(data)
			require.NoError(t, err)
			assert.Equal(t, tt.chunk.Id, decoded.Id)
			assert.Equal(t, tt.chunk.PaperId, decoded.PaperId)
			assert.Equal(t, tt.chunk.Text, decoded.Text)
			assert.Equal(t, len(tt.chunk.Vector), len(decoded.Vector))
			for i := range tt.chunk.Vector {
				assert.Equal(t, tt.chunk.Vector[i], decoded.Vector[i], "vector element %d", i)
			}
			assert.Equal(t, tt.chunk.Metadata.ChunkIndex, decoded.Metadata.ChunkIndex)
			assert.Equal(t, tt.chunk.Metadata.PageNumber, decoded.Metadata.PageNumber)
			assert.Equal(t, tt.chunk.Metadata.Placeholder, decoded.Metadata.Placeholder)
			for k, v := range tt.chunk.Metadata.Extra {
				assert.Equal(t, v, decoded.Metadata.Extra[k], "extra key %s", k)
			}
			assert.True(t, tt.chunk.InsertedAt.Equal(decoded.InsertedAt), "InsertedAt mismatch")
			assert.True(t, tt.chunk.UpdatedAt.Equal(decoded.UpdatedAt), "UpdatedAt mismatch")
		})
	}
}

func TestUnmarshalChunk_Corrupt(t *testing.T) {
	_, err := UnmarshalChunk([]byte{})
	assert.Error(t, err)
}
