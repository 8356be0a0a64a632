package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/paperbase/core"
)

// Key prefixes for different data types
const (
	paperRecordPrefix   = "paprec:"
	paperFileNamePrefix = "papfn:"
	chunkRecordPrefix   = "churec:"
	chunkPaperPrefix    = "chupap:"
	chunkIDSeq          = "chunkseq"
)

// makePaperKey generates a key for a paper by ID.
func makePaperKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s%d", paperRecordPrefix, id))
}

// makePaperFileNameKey generates a key for the file name index.
func makePaperFileNameKey(fileName string) []byte {
	return []byte(paperFileNamePrefix + fileName)
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s%d", chunkRecordPrefix, id))
}

// makeChunkPaperKey generates a composite key for the per-paper chunk index.
// Format: prefix + paperID + chunkIndex, both BigEndian so lexicographic
// iteration yields chunks in ChunkIndex order.
func makeChunkPaperKey(paperID core.ID, chunkIndex int) []byte {
	prefixBytes := []byte(chunkPaperPrefix)
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(paperID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(chunkIndex))
	return buf
}

// makePartialChunkPaperKey generates a partial key for iterating all chunks
// of one paper.
func makePartialChunkPaperKey(paperID core.ID) []byte {
	prefixBytes := []byte(chunkPaperPrefix)
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(paperID))
	return buf
}
