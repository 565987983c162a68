package storage

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vakya-app/vakya/pkg/models"
	"github.com/vakya-app/vakya/pkg/utils"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func newTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	store, err := NewBadgerStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testDocument(id string, createdAt time.Time) *models.Document {
	return &models.Document{
		ID:          id,
		Kind:        models.KindArticle,
		Title:       "Title " + id,
		Markdown:    "# Heading\n\nBody for " + id,
		ContentHash: "hash-" + id,
		Status:      models.DocStatusReady,
		CreatedAt:   createdAt,
	}
}

func TestBadgerStore_PutGetDocument(t *testing.T) {
	store := newTestStore(t)

	doc := testDocument("d1", time.Now().UTC())
	require.NoError(t, store.PutDocument(doc))

	got, err := store.GetDocument("d1")
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.Status, got.Status)
	assert.Equal(t, doc.ContentHash, got.ContentHash)
}

func TestBadgerStore_GetDocument_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetDocument("missing")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestBadgerStore_PutDocument_EmptyID(t *testing.T) {
	store := newTestStore(t)
	err := store.PutDocument(&models.Document{})
	assert.ErrorIs(t, err, utils.ErrDatabase)
}

func TestBadgerStore_ListDocuments_NewestFirst(t *testing.T) {
	store := newTestStore(t)

	base := time.Now().UTC()
	require.NoError(t, store.PutDocument(testDocument("old", base.Add(-2*time.Hour))))
	require.NoError(t, store.PutDocument(testDocument("mid", base.Add(-1*time.Hour))))
	require.NoError(t, store.PutDocument(testDocument("new", base)))

	docs, err := store.ListDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "new", docs[0].ID)
	assert.Equal(t, "mid", docs[1].ID)
	assert.Equal(t, "old", docs[2].ID)
}

func TestBadgerStore_FindByContentHash(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.PutDocument(testDocument("d1", time.Now().UTC())))

	found, err := store.FindByContentHash("hash-d1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "d1", found.ID)

	missing, err := store.FindByContentHash("no-such-hash")
	require.NoError(t, err)
	assert.Nil(t, missing)

	empty, err := store.FindByContentHash("")
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestBadgerStore_DeleteDocument_RemovesVocab(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.PutDocument(testDocument("d1", time.Now().UTC())))
	require.NoError(t, store.PutVocab(&models.VocabEntry{ID: "v1", DocumentID: "d1", Term: "palabra", Meaning: "word", AddedAt: time.Now().UTC()}))
	require.NoError(t, store.PutVocab(&models.VocabEntry{ID: "v2", DocumentID: "d1", Term: "libro", Meaning: "book", AddedAt: time.Now().UTC()}))
	// Vocab under another document must survive
	require.NoError(t, store.PutDocument(testDocument("d2", time.Now().UTC())))
	require.NoError(t, store.PutVocab(&models.VocabEntry{ID: "v3", DocumentID: "d2", Term: "casa", Meaning: "house", AddedAt: time.Now().UTC()}))

	require.NoError(t, store.DeleteDocument("d1"))

	_, err := store.GetDocument("d1")
	assert.ErrorIs(t, err, utils.ErrNotFound)

	gone, err := store.ListVocab("d1")
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := store.ListVocab("d2")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestBadgerStore_DeleteDocument_UnknownIDIsNoError(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.DeleteDocument("never-existed"))
}

func TestBadgerStore_VocabRoundTrip(t *testing.T) {
	store := newTestStore(t)

	base := time.Now().UTC()
	first := &models.VocabEntry{ID: "v1", DocumentID: "d1", Term: "uno", Meaning: "one", AddedAt: base.Add(-time.Minute)}
	second := &models.VocabEntry{ID: "v2", DocumentID: "d1", Term: "dos", Meaning: "two", AddedAt: base}
	require.NoError(t, store.PutVocab(second))
	require.NoError(t, store.PutVocab(first))

	entries, err := store.ListVocab("d1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Oldest first regardless of insertion order
	assert.Equal(t, "v1", entries[0].ID)
	assert.Equal(t, "v2", entries[1].ID)

	got, err := store.GetVocab("d1", "v1")
	require.NoError(t, err)
	assert.Equal(t, "uno", got.Term)

	require.NoError(t, store.DeleteVocab("d1", "v1"))
	_, err = store.GetVocab("d1", "v1")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestBadgerStore_PutVocab_RequiresIDs(t *testing.T) {
	store := newTestStore(t)
	err := store.PutVocab(&models.VocabEntry{ID: "v1"})
	assert.ErrorIs(t, err, utils.ErrDatabase)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store1, err := NewBadgerStore(dir, testLogger())
	require.NoError(t, err)
	require.NoError(t, store1.PutDocument(testDocument("d1", time.Now().UTC())))
	require.NoError(t, store1.Close())

	store2, err := NewBadgerStore(dir, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store2.Close() })

	got, err := store2.GetDocument("d1")
	require.NoError(t, err)
	assert.Equal(t, "Title d1", got.Title)
}
