package storage

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/obdakit/graphol-go/internal/graphol"
)

// Key prefixes for FTS
const (
	prefixFTSToken = "fts:t:" // fts:t:token:docKey -> frequency
	prefixFTSMeta  = "fts:m:" // fts:m:docKey -> serialized doc metadata
)

// ftsDoc is the searchable record for one predicate node occurrence.
type ftsDoc struct {
	NodeID  string           `json:"node"`
	Diagram string           `json:"diagram"`
	Type    graphol.ItemType `json:"type"`
	Name    string           `json:"name"`
}

// FTSIndex is a simple inverted index over predicate occurrences.
type FTSIndex struct {
	db *badger.DB
}

// NewFTSIndex creates a new FTS index using the given BadgerDB instance.
func NewFTSIndex(db *badger.DB) *FTSIndex {
	return &FTSIndex{db: db}
}

var (
	reSeparators = regexp.MustCompile(`[_\.\-\s:/#]+`)
	reCamelCase  = regexp.MustCompile(`([a-z])([A-Z])`)
)

// tokenize splits text into searchable tokens.
// Handles camelCase, snake_case and IRI-style separators, since predicate
// names in practice look like "hasAncestor" or "works_for".
func tokenize(text string) []string {
	if text == "" {
		return nil
	}

	tokens := make(map[string]bool)
	tokens[strings.ToLower(text)] = true

	for _, part := range reSeparators.Split(text, -1) {
		if len(part) > 0 {
			tokens[strings.ToLower(part)] = true
		}
	}

	camelSplit := reCamelCase.ReplaceAllString(text, "$1 $2")
	for _, part := range strings.Fields(camelSplit) {
		if len(part) > 0 {
			tokens[strings.ToLower(part)] = true
		}
	}

	result := make([]string, 0, len(tokens))
	for token := range tokens {
		if token != "" {
			result = append(result, token)
		}
	}
	return result
}

// docKey builds the FTS document key for one node occurrence.
func docKey(diagram, nodeID string) string {
	return diagram + "/" + nodeID
}

// Index adds or updates one predicate occurrence in the FTS index.
// The text argument carries everything searchable for the occurrence
// (predicate name, optionally the metadata description).
func (f *FTSIndex) Index(doc ftsDoc, text string) error {
	if f.db == nil {
		return nil
	}

	txn := f.db.NewTransaction(true)
	defer txn.Discard()

	key := docKey(doc.Diagram, doc.NodeID)
	if err := f.deleteDocTokens(txn, key); err != nil {
		return err
	}

	tokenFreq := make(map[string]int)
	for _, token := range tokenize(text) {
		tokenFreq[token]++
	}
	for token, freq := range tokenFreq {
		tokenKey := fmt.Sprintf("%s%s:%s", prefixFTSToken, token, key)
		if err := txn.Set([]byte(tokenKey), []byte(strconv.Itoa(freq))); err != nil {
			return fmt.Errorf("setting token index: %w", err)
		}
	}

	metaJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling doc metadata: %w", err)
	}
	if err := txn.Set([]byte(prefixFTSMeta+key), metaJSON); err != nil {
		return fmt.Errorf("setting doc metadata: %w", err)
	}

	return txn.Commit()
}

// Remove drops one predicate occurrence from the FTS index.
func (f *FTSIndex) Remove(diagram, nodeID string) error {
	if f.db == nil {
		return nil
	}

	txn := f.db.NewTransaction(true)
	defer txn.Discard()

	key := docKey(diagram, nodeID)
	if err := f.deleteDocTokens(txn, key); err != nil {
		return err
	}
	if err := txn.Delete([]byte(prefixFTSMeta + key)); err != nil {
		return err
	}

	return txn.Commit()
}

// deleteDocTokens removes all token entries for a document.
func (f *FTSIndex) deleteDocTokens(txn *badger.Txn, key string) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefixFTSToken)
	it := txn.NewIterator(opts)
	defer it.Close()

	searchSuffix := ":" + key
	var keysToDelete [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		if strings.HasSuffix(string(item.Key()), searchSuffix) {
			keysToDelete = append(keysToDelete, item.KeyCopy(nil))
		}
	}

	for _, k := range keysToDelete {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// Search performs full-text search with simple TF scoring.
func (f *FTSIndex) Search(query string, limit int) ([]SearchResult, error) {
	if f.db == nil {
		return []SearchResult{}, nil
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return []SearchResult{}, nil
	}

	docScores := make(map[string]float64)

	txn := f.db.NewTransaction(false)
	defer txn.Discard()

	for _, token := range queryTokens {
		prefix := fmt.Sprintf("%s%s:", prefixFTSToken, token)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := strings.TrimPrefix(string(item.Key()), prefix)

			var freq int
			_ = item.Value(func(val []byte) error {
				freq, _ = strconv.Atoi(string(val))
				return nil
			})
			docScores[key] += float64(freq)
		}
		it.Close()
	}

	var results []SearchResult
	for key, score := range docScores {
		if score <= 0 {
			continue
		}

		metaItem, err := txn.Get([]byte(prefixFTSMeta + key))
		if err != nil {
			continue
		}

		var doc ftsDoc
		if err := metaItem.Value(func(val []byte) error {
			return json.Unmarshal(val, &doc)
		}); err != nil {
			continue
		}

		results = append(results, SearchResult{
			NodeID:  doc.NodeID,
			Diagram: doc.Diagram,
			Type:    doc.Type,
			Name:    doc.Name,
			Score:   score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].NodeID < results[j].NodeID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}
