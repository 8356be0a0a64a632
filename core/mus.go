package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written mus-format serializers for the domain types. The structs are
// small and stable, so the codecs are maintained by hand. Timestamps are
// stored as Unix microseconds.
var (
	IDMUS    = idMUS{}
	PaperMUS = paperMUS{}
	ChunkMUS = chunkMUS{}
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

type paperMUS struct{}

func (paperMUS) Marshal(p Paper, bs []byte) int {
	n := IDMUS.Marshal(p.Id, bs)
	n += ord.String.Marshal(p.FileName, bs[n:])
	n += ord.String.Marshal(p.FullText, bs[n:])
	n += varint.Int.Marshal(p.PageCount, bs[n:])
	n += marshalTime(p.InsertedAt, bs[n:])
	n += marshalTime(p.UpdatedAt, bs[n:])
	return n
}

func (paperMUS) Unmarshal(bs []byte) (p Paper, n int, err error) {
	var n1 int
	if p.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if p.FileName, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.FullText, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.PageCount, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	if p.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return p, n + n1, err
	}
	n += n1
	return p, n, nil
}

func (paperMUS) Size(p Paper) int {
	return IDMUS.Size(p.Id) +
		ord.String.Size(p.FileName) +
		ord.String.Size(p.FullText) +
		varint.Int.Size(p.PageCount) +
		sizeTime(p.InsertedAt) +
		sizeTime(p.UpdatedAt)
}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) int {
	n := IDMUS.Marshal(c.Id, bs)
	n += IDMUS.Marshal(c.PaperId, bs[n:])
	n += ord.String.Marshal(c.Text, bs[n:])
	n += marshalVector(c.Vector, bs[n:])
	n += marshalMetadata(c.Metadata, bs[n:])
	n += marshalTime(c.InsertedAt, bs[n:])
	n += marshalTime(c.UpdatedAt, bs[n:])
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	if c.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if c.PaperId, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Vector, n1, err = unmarshalVector(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.Metadata, n1, err = unmarshalMetadata(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.InsertedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if c.UpdatedAt, n1, err = unmarshalTime(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	return c, n, nil
}

func (chunkMUS) Size(c Chunk) int {
	return IDMUS.Size(c.Id) +
		IDMUS.Size(c.PaperId) +
		ord.String.Size(c.Text) +
		sizeVector(c.Vector) +
		sizeMetadata(c.Metadata) +
		sizeTime(c.InsertedAt) +
		sizeTime(c.UpdatedAt)
}

func marshalTime(t time.Time, bs []byte) int {
	return varint.Int64.Marshal(t.UnixMicro(), bs)
}

func unmarshalTime(bs []byte) (time.Time, int, error) {
	micros, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return time.Time{}, n, err
	}
	return time.UnixMicro(micros).UTC(), n, nil
}

func sizeTime(t time.Time) int {
	return varint.Int64.Size(t.UnixMicro())
}

func marshalVector(v []float32, bs []byte) int {
	n := varint.PositiveInt.Marshal(len(v), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return n
}

func unmarshalVector(bs []byte) ([]float32, int, error) {
	length, n, err := varint.PositiveInt.Unmarshal(bs)
	if err != nil || length == 0 {
		return nil, n, err
	}
	v := make([]float32, length)
	for i := range v {
		f, n1, err := raw.Float32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		v[i] = f
	}
	return v, n, nil
}

func sizeVector(v []float32) int {
	n := varint.PositiveInt.Size(len(v))
	for _, f := range v {
		n += raw.Float32.Size(f)
	}
	return n
}

func marshalMetadata(m ChunkMetadata, bs []byte) int {
	n := varint.Int.Marshal(m.ChunkIndex, bs)
	n += varint.Int.Marshal(m.PageNumber, bs[n:])
	n += ord.Bool.Marshal(m.Placeholder, bs[n:])
	n += varint.PositiveInt.Marshal(len(m.Extra), bs[n:])
	for k, v := range m.Extra {
		n += ord.String.Marshal(k, bs[n:])
		n += ord.String.Marshal(v, bs[n:])
	}
	return n
}

func unmarshalMetadata(bs []byte) (m ChunkMetadata, n int, err error) {
	var n1 int
	if m.ChunkIndex, n, err = varint.Int.Unmarshal(bs); err != nil {
		return
	}
	if m.PageNumber, n1, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if m.Placeholder, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	var count int
	if count, n1, err = varint.PositiveInt.Unmarshal(bs[n:]); err != nil {
		return m, n + n1, err
	}
	n += n1
	if count == 0 {
		return m, n, nil
	}
	m.Extra = make(map[string]string, count)
	for i := 0; i < count; i++ {
		var k, v string
		if k, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return m, n + n1, err
		}
		n += n1
		if v, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return m, n + n1, err
		}
		n += n1
		m.Extra[k] = v
	}
	return m, n, nil
}

func sizeMetadata(m ChunkMetadata) int {
	n := varint.Int.Size(m.ChunkIndex) +
		varint.Int.Size(m.PageNumber) +
		ord.Bool.Size(m.Placeholder) +
		varint.PositiveInt.Size(len(m.Extra))
	for k, v := range m.Extra {
		n += ord.String.Size(k) + ord.String.Size(v)
	}
	return n
}
