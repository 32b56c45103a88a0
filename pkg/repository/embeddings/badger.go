package embeddings

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/forkfeed/forkfeed/pkg/observability"
)

// keyPrefix namespaces embedding records inside the Badger keyspace
const keyPrefix = "embedding/"

// seqKey is the key of the insertion-order sequence
const seqKey = "embedding-seq"

// BadgerStore implements Store on an embedded Badger database. Records are
// JSON documents keyed by a monotonically increasing sequence number, so a
// prefix scan returns them in insertion order.
type BadgerStore struct {
	db     *badger.DB
	seq    *badger.Sequence
	logger observability.Logger
}

// NewBadgerStore opens (or creates) the Badger database at path
func NewBadgerStore(path string, logger observability.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = observability.NewNoopLogger()
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding store: %w", err)
	}

	seq, err := db.GetSequence([]byte(seqKey), 64)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open embedding sequence: %w", err)
	}

	return &BadgerStore{db: db, seq: seq, logger: logger}, nil
}

// Save inserts a new embedding record. It never updates or deduplicates.
func (s *BadgerStore) Save(ctx context.Context, recipeID int64, vector []float64) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record := &Record{
		ID:        uuid.NewString(),
		RecipeID:  recipeID,
		Embedding: vector,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding record: %w", err)
	}

	n, err := s.seq.Next()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate embedding key: %w", err)
	}
	key := recordKey(n)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save embedding: %w", err)
	}

	s.logger.Debug("Saved embedding", map[string]interface{}{
		"recipe_id":  recipeID,
		"dimensions": len(vector),
	})
	return record, nil
}

// FindAll returns every record in insertion order
func (s *BadgerStore) FindAll(ctx context.Context) ([]*Record, error) {
	var records []*Record

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var record Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return fmt.Errorf("failed to decode embedding record: %w", err)
			}
			records = append(records, &record)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan embeddings: %w", err)
	}
	return records, nil
}

// FindByRecipeID returns the first record for recipeID, or nil when absent
func (s *BadgerStore) FindByRecipeID(ctx context.Context, recipeID int64) (*Record, error) {
	record, _, err := s.findWithKey(ctx, recipeID)
	return record, err
}

// DeleteForRecipe removes the first record for recipeID. Absent recipeID,
// or a recipeID with no stored embedding, is a silent no-op.
func (s *BadgerStore) DeleteForRecipe(ctx context.Context, recipeID int64) error {
	if recipeID <= 0 {
		return nil
	}

	_, key, err := s.findWithKey(ctx, recipeID)
	if err != nil {
		return err
	}
	if key == nil {
		return nil
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return fmt.Errorf("failed to delete embedding: %w", err)
	}

	s.logger.Debug("Deleted embedding", map[string]interface{}{"recipe_id": recipeID})
	return nil
}

// Close releases the sequence lease and the database
func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		return fmt.Errorf("failed to release embedding sequence: %w", err)
	}
	return s.db.Close()
}

func (s *BadgerStore) findWithKey(ctx context.Context, recipeID int64) (*Record, []byte, error) {
	var found *Record
	var foundKey []byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var record Record
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return fmt.Errorf("failed to decode embedding record: %w", err)
			}
			if record.RecipeID == recipeID {
				found = &record
				foundKey = item.KeyCopy(nil)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up embedding: %w", err)
	}
	return found, foundKey, nil
}

func recordKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x", keyPrefix, seq))
}
