package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/AvazbekNurmatov/lex-ai/core"
	"github.com/AvazbekNurmatov/lex-ai/storage"
)

// IndexRepository implements storage.IndexRepository for BadgerDB.
//
// Each artifact is a header key plus one key per row. Saving drops the old
// artifact, writes the rows, then writes the header last, so an interrupted
// save leaves rows without a header and loads as missing.
type IndexRepository struct {
	backend *Backend
	owned   bool
}

var _ storage.IndexRepository = (*IndexRepository)(nil)

// NewIndexRepository creates an IndexRepository on an open backend.
// The caller keeps ownership of the backend.
func NewIndexRepository(backend *Backend) (*IndexRepository, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &IndexRepository{backend: backend}, nil
}

// NewRepository opens the BadgerDB database at path and returns an index
// repository that owns it.
func NewRepository(path string, opts ...BackendOption) (storage.IndexRepository, error) {
	backend, err := OpenBackend(path, false, opts...)
	if err != nil {
		return nil, err
	}
	return &IndexRepository{backend: backend, owned: true}, nil
}

// Close closes the backend if the repository owns it.
func (r *IndexRepository) Close() error {
	if !r.owned {
		return nil
	}
	return r.backend.Close()
}

// SaveIndex replaces the stored vector artifact.
func (r *IndexRepository) SaveIndex(ctx context.Context, artifact *core.VectorArtifact) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if err := core.ValidateVectorArtifact(artifact); err != nil {
		return err
	}

	if err := r.backend.DropPrefix(vectorPrefix); err != nil {
		return err
	}

	err := r.backend.WriteRows(ctx, artifact.Rows(), func(i int) ([]byte, []byte) {
		return makeRowKey(vectorRowPrefix, i), storage.MarshalVectorRow(artifact.RowIDs[i], artifact.Vectors[i])
	})
	if err != nil {
		return fmt.Errorf("writing vector rows: %w", err)
	}

	header := storage.MarshalVectorHeader(storage.VectorHeader{
		Model:     artifact.Model,
		Dimension: artifact.Dimension,
		Rows:      artifact.Rows(),
		BuiltAt:   artifact.BuiltAt,
	})
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(vectorHeaderKey), header); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	r.backend.logger.Debug("saved vector artifact", "rows", artifact.Rows(), "dimension", artifact.Dimension)
	return nil
}

// LoadIndex reads the stored vector artifact.
func (r *IndexRepository) LoadIndex(ctx context.Context) (*core.VectorArtifact, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	var artifact *core.VectorArtifact
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := readValue(tx, vectorHeaderKey)
		if err != nil {
			return err
		}
		header, err := storage.UnmarshalVectorHeader(value)
		if err != nil {
			return fmt.Errorf("%w: vector header: %w", core.ErrPersistenceCorruption, err)
		}

		artifact = &core.VectorArtifact{
			Model:     header.Model,
			Dimension: header.Dimension,
			Vectors:   make([][]float32, 0, header.Rows),
			RowIDs:    make([]core.ID, 0, header.Rows),
			BuiltAt:   header.BuiltAt,
		}

		return scanRows(ctx, tx, vectorRowPrefix, header.Rows, func(row []byte) error {
			id, vector, err := storage.UnmarshalVectorRow(row, header.Dimension)
			if err != nil {
				return err
			}
			artifact.RowIDs = append(artifact.RowIDs, id)
			artifact.Vectors = append(artifact.Vectors, vector)
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	return artifact, nil
}

// SaveMetadata replaces the stored metadata artifact.
func (r *IndexRepository) SaveMetadata(ctx context.Context, artifact *core.MetadataArtifact) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if artifact == nil {
		return fmt.Errorf("%w: nil metadata artifact", storage.ErrSerializationFailed)
	}

	if err := r.backend.DropPrefix(metadataPrefix); err != nil {
		return err
	}

	err := r.backend.WriteRows(ctx, artifact.Rows(), func(i int) ([]byte, []byte) {
		return makeRowKey(metadataRowPrefix, i), storage.MarshalParagraphRecord(&artifact.Records[i])
	})
	if err != nil {
		return fmt.Errorf("writing metadata rows: %w", err)
	}

	header := storage.MarshalMetadataHeader(storage.MetadataHeader{Rows: artifact.Rows()})
	err = r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(metadataHeaderKey), header); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	r.backend.logger.Debug("saved metadata artifact", "rows", artifact.Rows())
	return nil
}

// LoadMetadata reads the stored metadata artifact.
// Every record is checked against the surrogate id stored with it.
func (r *IndexRepository) LoadMetadata(ctx context.Context) (*core.MetadataArtifact, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	var artifact *core.MetadataArtifact
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		value, err := readValue(tx, metadataHeaderKey)
		if err != nil {
			return err
		}
		header, err := storage.UnmarshalMetadataHeader(value)
		if err != nil {
			return fmt.Errorf("%w: metadata header: %w", core.ErrPersistenceCorruption, err)
		}

		artifact = &core.MetadataArtifact{Records: make([]core.ParagraphRecord, 0, header.Rows)}

		return scanRows(ctx, tx, metadataRowPrefix, header.Rows, func(row []byte) error {
			id, record, err := storage.UnmarshalParagraphRecord(row)
			if err != nil {
				return err
			}
			if id != record.ID() {
				return fmt.Errorf("record %s/%s does not match its stored id", record.SourceDocID, record.ParagraphID)
			}
			artifact.Records = append(artifact.Records, *record)
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	return artifact, nil
}

// DeleteAll removes both artifacts.
func (r *IndexRepository) DeleteAll(ctx context.Context) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if err := r.backend.DropPrefix(vectorPrefix); err != nil {
		return err
	}
	return r.backend.DropPrefix(metadataPrefix)
}

func (r *IndexRepository) checkOpen() error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

// readValue copies the value stored at key, mapping a missing key to
// storage.ErrNotFound.
func readValue(tx *badger.Txn, key string) ([]byte, error) {
	item, err := tx.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

// scanRows visits the rows under prefix in row order. Rows must be numbered
// contiguously from zero and there must be exactly want of them; any
// deviation, or a row fn rejects, is reported as corruption.
func scanRows(ctx context.Context, tx *badger.Txn, prefix string, want int, fn func(row []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	next := 0
	for iter.Rewind(); iter.Valid(); iter.Next() {
		if next%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		item := iter.Item()
		row, ok := parseRowKey(prefix, item.Key())
		if !ok || row != next {
			return fmt.Errorf("%w: expected row %d under %q, found key %q",
				core.ErrPersistenceCorruption, next, prefix, item.Key())
		}

		if err := item.Value(fn); err != nil {
			return fmt.Errorf("%w: row %d under %q: %w", core.ErrPersistenceCorruption, row, prefix, err)
		}
		next++
	}

	if next != want {
		return fmt.Errorf("%w: header declares %d rows under %q, found %d",
			core.ErrPersistenceCorruption, want, prefix, next)
	}
	return nil
}
