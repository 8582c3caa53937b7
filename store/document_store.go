// Package store keeps the stored field values of indexed documents so search
// hits can be returned with their original content.
package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"maps"
	"sync"

	"github.com/gcbaptista/go-fulltext-engine/index"
	"github.com/gcbaptista/go-fulltext-engine/internal/errors"
)

// DocumentStore maps internal document IDs to their stored fields.
type DocumentStore struct {
	Mu   sync.RWMutex
	Docs map[uint32]map[string]string // Internal ID to stored field values
}

// gobDocumentStoreData is a helper struct for Gob encoding/decoding DocumentStore data.
// It excludes the mutex.
type gobDocumentStoreData struct {
	Docs map[uint32]map[string]string
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{Docs: make(map[uint32]map[string]string)}
}

// Put records the stored fields of docID. Fields not marked Stored are
// skipped; repeated values of one field are joined with a space.
func (ds *DocumentStore) Put(docID uint32, fields []index.Field) {
	stored := make(map[string]string)
	for _, f := range fields {
		if !f.Stored {
			continue
		}
		if prev, ok := stored[f.Name]; ok {
			stored[f.Name] = prev + " " + f.Value
			continue
		}
		stored[f.Name] = f.Value
	}

	ds.Mu.Lock()
	defer ds.Mu.Unlock()
	ds.Docs[docID] = stored
}

// Remove drops the stored fields of docID. It is used to roll back a Put
// whose document could not be indexed.
func (ds *DocumentStore) Remove(docID uint32) {
	ds.Mu.Lock()
	defer ds.Mu.Unlock()
	delete(ds.Docs, docID)
}

// Get returns a copy of the stored fields of docID.
func (ds *DocumentStore) Get(docID uint32) (map[string]string, error) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	doc, ok := ds.Docs[docID]
	if !ok {
		return nil, errors.NewDocumentNotFoundError(docID)
	}
	return maps.Clone(doc), nil
}

// Len returns the number of documents in the store.
func (ds *DocumentStore) Len() int {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()
	return len(ds.Docs)
}

// GobEncode implements the gob.GobEncoder interface for DocumentStore.
func (ds *DocumentStore) GobEncode() ([]byte, error) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobDocumentStoreData{Docs: ds.Docs}); err != nil {
		return nil, fmt.Errorf("failed to gob encode document store data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for DocumentStore.
func (ds *DocumentStore) GobDecode(data []byte) error {
	decodedData := gobDocumentStoreData{}
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&decodedData); err != nil {
		return fmt.Errorf("failed to gob decode document store data: %w", err)
	}

	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	ds.Docs = decodedData.Docs
	if ds.Docs == nil {
		ds.Docs = make(map[uint32]map[string]string)
	}
	for id, doc := range ds.Docs {
		if doc == nil {
			ds.Docs[id] = make(map[string]string)
		}
	}
	return nil
}
