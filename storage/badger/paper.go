package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/paperbase/core"
	"github.com/poiesic/paperbase/storage"
)

// PaperRepository implements storage.PaperRepository for BadgerDB.
type PaperRepository struct {
	backend *Backend
}

var _ storage.PaperRepository = (*PaperRepository)(nil)

// NewPaperRepository creates a new PaperRepository.
func NewPaperRepository(backend *Backend) (storage.PaperRepository, error) {
	return &PaperRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *PaperRepository) Close() error {
	return nil
}

// RankBySimilarity delegates to the backend.
func (r *PaperRepository) RankBySimilarity(ctx context.Context, vector []float32, limit int) ([]*core.SimilarityMatch, error) {
	return r.backend.RankBySimilarity(ctx, vector, limit)
}

// WithTransaction delegates to the backend.
func (r *PaperRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddPapers adds one or more papers to storage.
// Paper IDs are content hashes of the full text, so inserting the same
// document twice fails with ErrDuplicateKey.
func (r *PaperRepository) AddPapers(ctx context.Context, papers ...*core.Paper) ([]*core.Paper, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, paper := range papers {
			if err := core.ValidatePaper(paper); err != nil {
				return err
			}

			if paper.Id == 0 {
				paper.Id = core.IDFromContent(paper.FullText)
			}

			key := makePaperKey(paper.Id)
			if _, err := tx.Get(key); err == nil {
				return storage.ErrDuplicateKey
			} else if err != badger.ErrKeyNotFound {
				return err
			}

			paper.InsertedAt = time.Now().UTC()
			paper.UpdatedAt = paper.InsertedAt

			if err := tx.Set(key, storage.MarshalPaper(paper)); err != nil {
				return err
			}

			if paper.FileName != "" {
				fnKey := makePaperFileNameKey(paper.FileName)
				if err := tx.Set(fnKey, storage.MarshalID(paper.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return papers, err
}

// GetPaper retrieves a single paper by ID.
func (r *PaperRepository) GetPaper(ctx context.Context, id core.ID) (*core.Paper, error) {
	var paper *core.Paper
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makePaperKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			paper, err = storage.UnmarshalPaper(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return paper, nil
}

// GetPaperByFileName retrieves a paper by its original file name.
func (r *PaperRepository) GetPaperByFileName(ctx context.Context, fileName string) (*core.Paper, error) {
	var id core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makePaperFileNameKey(fileName))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return r.GetPaper(ctx, id)
}

// ListPapers retrieves all papers ordered by ID.
func (r *PaperRepository) ListPapers(ctx context.Context) ([]*core.Paper, error) {
	var papers []*core.Paper
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(paperRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var paper *core.Paper
			err := iter.Item().Value(func(val []byte) error {
				var err error
				paper, err = storage.UnmarshalPaper(val)
				return err
			})
			if err != nil {
				return err
			}
			papers = append(papers, paper)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return papers, nil
}

// DeletePapers removes papers by their IDs, cascading to their chunks.
func (r *PaperRepository) DeletePapers(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makePaperKey(id)

			item, err := tx.Get(key)
			if err != nil {
				if err == badger.ErrKeyNotFound {
					return storage.ErrNotFound
				}
				return err
			}
			var paper *core.Paper
			if err := item.Value(func(val []byte) error {
				var err error
				paper, err = storage.UnmarshalPaper(val)
				return err
			}); err != nil {
				return err
			}

			// Cascade: remove all chunks owned by this paper via the
			// per-paper index.
			if err := deleteChunksForPaper(tx, id); err != nil {
				return err
			}

			if paper.FileName != "" {
				if err := tx.Delete(makePaperFileNameKey(paper.FileName)); err != nil {
					return err
				}
			}

			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// deleteChunksForPaper removes every chunk of a paper plus its index entries.
func deleteChunksForPaper(tx *badger.Txn, paperID core.ID) error {
	prefix := makePartialChunkPaperKey(paperID)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)

	var indexKeys [][]byte
	var chunkIDs []core.ID
	for iter.Rewind(); iter.Valid(); iter.Next() {
		item := iter.Item()
		indexKeys = append(indexKeys, item.KeyCopy(nil))

		var chunkID core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			chunkID, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			iter.Close()
			return err
		}
		chunkIDs = append(chunkIDs, chunkID)
	}
	iter.Close()

	for _, key := range indexKeys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	for _, chunkID := range chunkIDs {
		if err := tx.Delete(makeChunkKey(chunkID)); err != nil {
			return err
		}
	}
	return nil
}
