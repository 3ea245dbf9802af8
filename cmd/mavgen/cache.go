package main

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

const cacheFileName = ".mavgen-cache.cbor"

// cacheRecord is the on-disk cache content: the content hash of every XML
// definition file that fed the last successful generation into destDir.
// Unchanged inputs let mavgen skip rewriting (and reformatting) files that
// would come out byte-identical anyway.
type cacheRecord struct {
	Hash string `cbor:"hash"`
}

// definitionsHash hashes every *.xml file directly under dir (sorted by name
// so the result is independent of directory iteration order). Files pulled
// in through <include> from outside dir are not part of the hash, so a
// change to one of them alone does not invalidate the cache.
func definitionsHash(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".xml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	h := sha256.New()
	for _, n := range names {
		data, err := os.ReadFile(filepath.Join(dir, n))
		if err != nil {
			return "", err
		}
		h.Write([]byte(n))
		h.Write([]byte{0})
		h.Write(data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func loadCache(destDir string) (*cacheRecord, error) {
	data, err := os.ReadFile(filepath.Join(destDir, cacheFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var rec cacheRecord
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func saveCache(destDir, hash string) error {
	data, err := cbor.Marshal(cacheRecord{Hash: hash})
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(destDir, cacheFileName), data, 0o644)
}
