// Package blob stores uploaded document files in object storage, addressed
// by the storage keys produced by pkg/safename.
package blob

import (
	"context"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/viant/afs"

	"github.com/vakya-app/vakya/pkg/safename"
	"github.com/vakya-app/vakya/pkg/utils"
)

// Store wraps an afs.Service rooted at a base URL. Any afs scheme works:
// file:// for local deployments, mem:// in tests, s3:// and friends in cloud.
type Store struct {
	fs      afs.Service
	baseURL string
	log     *logrus.Entry
}

// New creates a Store rooted at baseURL
func New(baseURL string, logger *logrus.Entry) *Store {
	return &Store{
		fs:      afs.New(),
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger,
	}
}

// objectURL resolves a storage key (or a full URL pointing at one) to the
// object's absolute URL under the store root.
func (s *Store) objectURL(key string) string {
	return s.baseURL + "/" + safename.ExtractStorageKey(key)
}

// Put writes the content readable from r under key, replacing any previous object
func (s *Store) Put(ctx context.Context, key string, r io.Reader) error {
	objURL := s.objectURL(key)
	if err := s.fs.Upload(ctx, objURL, 0644, r); err != nil {
		s.log.WithField("url", objURL).Errorf("Upload failed: %v", err)
		return utils.WrapErrorf(utils.ErrObjectStorage, "uploading '%s': %v", key, err)
	}
	s.log.WithField("url", objURL).Debug("Object stored")
	return nil
}

// Open returns a reader for the object under key. The caller closes it.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	objURL := s.objectURL(key)
	rc, err := s.fs.OpenURL(ctx, objURL)
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrObjectStorage, "opening '%s': %v", key, err)
	}
	return rc, nil
}

// Exists reports whether an object is stored under key
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.fs.Exists(ctx, s.objectURL(key))
	if err != nil {
		return false, utils.WrapErrorf(utils.ErrObjectStorage, "checking '%s': %v", key, err)
	}
	return ok, nil
}

// Delete removes the object under key. Deleting a missing object is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	objURL := s.objectURL(key)
	exists, err := s.fs.Exists(ctx, objURL)
	if err != nil {
		return utils.WrapErrorf(utils.ErrObjectStorage, "checking '%s': %v", key, err)
	}
	if !exists {
		return nil
	}
	if err := s.fs.Delete(ctx, objURL); err != nil {
		return utils.WrapErrorf(utils.ErrObjectStorage, "deleting '%s': %v", key, err)
	}
	return nil
}
