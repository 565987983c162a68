package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/vakya-app/vakya/pkg/log"
	"github.com/vakya-app/vakya/pkg/models"
	"github.com/vakya-app/vakya/pkg/utils"
)

const (
	docKeyPrefix   = "doc:"   // Prefix for document keys in DB
	vocabKeyPrefix = "vocab:" // Prefix for vocabulary keys: vocab:<docID>:<vocabID>
)

// BadgerStore implements the Store interface using BadgerDB
type BadgerStore struct {
	db  *badger.DB
	log *logrus.Entry
}

// NewBadgerStore opens (creating if needed) the metadata database at stateDir
func NewBadgerStore(stateDir string, logger *logrus.Entry) (*BadgerStore, error) {
	logger.Infof("Initializing metadata database at: %s", stateDir)

	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create state directory %s: %w", stateDir, err)
	}

	badgerLogger := log.NewBadgerAdapter(logger.WithField("component", "badgerdb"))
	opts := badger.DefaultOptions(stateDir).
		WithLogger(badgerLogger).
		WithNumVersionsToKeep(1) // Only the latest record matters

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", stateDir, err)
	}

	logger.Info("Metadata database initialized.")
	return &BadgerStore{db: db, log: logger}, nil
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Concurrent MVCC transactions on overlapping keys can return badger.ErrConflict;
// these resolve in microseconds, so a tight retry loop is sufficient.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// putJSON marshals v and writes it under key
func (s *BadgerStore) putJSON(key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal value for key '%s': %v", utils.ErrParsing, key, err)
	}
	err = s.dbUpdate(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), raw))
	})
	if err != nil {
		s.log.WithField("key", key).Errorf("DB Update error: %v", err)
		return fmt.Errorf("%w: setting key '%s': %v", utils.ErrDatabase, key, err)
	}
	return nil
}

// getJSON reads key and unmarshals it into v.
// Returns utils.ErrNotFound (wrapped) when the key does not exist.
func (s *BadgerStore) getJSON(key string, v interface{}) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, errGet := txn.Get([]byte(key))
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return utils.WrapErrorf(utils.ErrNotFound, "key '%s'", key)
		}
		if errGet != nil {
			return fmt.Errorf("%w: getting key '%s': %v", utils.ErrDatabase, key, errGet)
		}
		return item.Value(func(val []byte) error {
			if errJSON := json.Unmarshal(val, v); errJSON != nil {
				return fmt.Errorf("%w: failed to unmarshal value for key '%s': %v", utils.ErrParsing, key, errJSON)
			}
			return nil
		})
	})
	return err
}

// --- DocumentStore ---

// PutDocument implements the Store interface
func (s *BadgerStore) PutDocument(doc *models.Document) error {
	if doc.ID == "" {
		return utils.WrapErrorf(utils.ErrDatabase, "document has empty ID")
	}
	return s.putJSON(docKeyPrefix+doc.ID, doc)
}

// GetDocument implements the Store interface
func (s *BadgerStore) GetDocument(id string) (*models.Document, error) {
	var doc models.Document
	if err := s.getJSON(docKeyPrefix+id, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocuments implements the Store interface
func (s *BadgerStore) ListDocuments() ([]*models.Document, error) {
	docs, err := s.scanDocuments(func(*models.Document) bool { return true })
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

// FindByContentHash implements the Store interface
func (s *BadgerStore) FindByContentHash(hash string) (*models.Document, error) {
	if hash == "" {
		return nil, nil
	}
	docs, err := s.scanDocuments(func(d *models.Document) bool { return d.ContentHash == hash })
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// scanDocuments iterates the doc: prefix, collecting entries matching keep.
// Records that fail to decode are logged and skipped rather than failing
// the whole listing.
func (s *BadgerStore) scanDocuments(keep func(*models.Document) bool) ([]*models.Document, error) {
	var docs []*models.Document
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(docKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			errVal := item.Value(func(val []byte) error {
				var doc models.Document
				if errJSON := json.Unmarshal(val, &doc); errJSON != nil {
					s.log.Warnf("Skipping undecodable document record '%s': %v", string(item.Key()), errJSON)
					return nil
				}
				if keep(&doc) {
					docs = append(docs, &doc)
				}
				return nil
			})
			if errVal != nil {
				return fmt.Errorf("%w: reading key '%s': %v", utils.ErrDatabase, string(item.Key()), errVal)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// DeleteDocument implements the Store interface. The document record and
// every vocab:<id>: entry are removed in one transaction.
func (s *BadgerStore) DeleteDocument(id string) error {
	err := s.dbUpdate(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(docKeyPrefix + id)); err != nil {
			return err
		}
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)

		prefix := []byte(vocabKeyPrefix + id + ":")
		var stale [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close() // Close before issuing deletes in the same txn
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.WithField("doc_id", id).Errorf("DB Update error in DeleteDocument: %v", err)
		return fmt.Errorf("%w: deleting document '%s': %v", utils.ErrDatabase, id, err)
	}
	return nil
}

// --- VocabStore ---

func vocabKey(documentID, vocabID string) string {
	return vocabKeyPrefix + documentID + ":" + vocabID
}

// PutVocab implements the Store interface
func (s *BadgerStore) PutVocab(entry *models.VocabEntry) error {
	if entry.ID == "" || entry.DocumentID == "" {
		return utils.WrapErrorf(utils.ErrDatabase, "vocab entry has empty ID or document ID")
	}
	return s.putJSON(vocabKey(entry.DocumentID, entry.ID), entry)
}

// GetVocab implements the Store interface
func (s *BadgerStore) GetVocab(documentID, vocabID string) (*models.VocabEntry, error) {
	var entry models.VocabEntry
	if err := s.getJSON(vocabKey(documentID, vocabID), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListVocab implements the Store interface
func (s *BadgerStore) ListVocab(documentID string) ([]*models.VocabEntry, error) {
	var entries []*models.VocabEntry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(vocabKeyPrefix + documentID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			errVal := item.Value(func(val []byte) error {
				var entry models.VocabEntry
				if errJSON := json.Unmarshal(val, &entry); errJSON != nil {
					s.log.Warnf("Skipping undecodable vocab record '%s': %v", string(item.Key()), errJSON)
					return nil
				}
				entries = append(entries, &entry)
				return nil
			})
			if errVal != nil {
				return fmt.Errorf("%w: reading key '%s': %v", utils.ErrDatabase, string(item.Key()), errVal)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].AddedAt.Before(entries[j].AddedAt)
	})
	return entries, nil
}

// DeleteVocab implements the Store interface
func (s *BadgerStore) DeleteVocab(documentID, vocabID string) error {
	err := s.dbUpdate(func(txn *badger.Txn) error {
		return txn.Delete([]byte(vocabKey(documentID, vocabID)))
	})
	if err != nil {
		return fmt.Errorf("%w: deleting vocab '%s/%s': %v", utils.ErrDatabase, documentID, vocabID, err)
	}
	return nil
}

// --- StoreAdmin ---

// RunGC runs BadgerDB's value log garbage collection periodically
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute // Default interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("BadgerDB GC goroutine started.")

	for {
		select {
		case <-ticker.C:
			if s.db == nil || s.db.IsClosed() {
				s.log.Info("DB GC: Database is nil or closed, skipping GC cycle.")
				continue
			}

			var err error
			// Loop GC until it returns ErrNoRewrite or another error
			for {
				err = s.db.RunValueLogGC(0.5)
				if err != nil {
					break
				}
			}
			if errors.Is(err, badger.ErrNoRewrite) {
				s.log.Debug("BadgerDB GC finished (no rewrite needed).")
			} else {
				s.log.Errorf("BadgerDB GC error: %v", err)
			}

		case <-ctx.Done():
			s.log.Infof("Stopping BadgerDB garbage collection goroutine: %v", ctx.Err())
			return
		}
	}
}

// Close implements the Store interface
func (s *BadgerStore) Close() error {
	if s.db != nil && !s.db.IsClosed() {
		s.log.Info("Closing metadata DB...")
		if err := s.db.Close(); err != nil {
			s.log.Errorf("Error closing metadata DB: %v", err)
			return err
		}
		return nil
	}
	return nil
}
