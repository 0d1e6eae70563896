// Package batch runs guarded calls over a directory of documents.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// resultSuffix marks a document as processed. A document with a sibling
// result file is skipped on later runs.
const resultSuffix = ".guard.json"

// Queue lists pending documents in a directory. Plain-text and markdown
// files count as documents; everything else is ignored.
type Queue struct {
	dir string
}

// NewQueue creates a queue over dir.
func NewQueue(dir string) (*Queue, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open batch dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("batch path %s is not a directory", dir)
	}
	return &Queue{dir: dir}, nil
}

// Next returns the next pending document path, or "" when none remain.
func (q *Queue) Next() (string, error) {
	pending, err := q.Pending()
	if err != nil {
		return "", err
	}
	if len(pending) == 0 {
		return "", nil
	}
	return pending[0], nil
}

// Pending returns all unprocessed document paths, sorted.
func (q *Queue) Pending() ([]string, error) {
	entries, err := os.ReadDir(q.dir)
	if err != nil {
		return nil, fmt.Errorf("read batch dir: %w", err)
	}
	var pending []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		if _, err := os.Stat(filepath.Join(q.dir, name+resultSuffix)); err == nil {
			continue
		}
		pending = append(pending, filepath.Join(q.dir, name))
	}
	sort.Strings(pending)
	return pending, nil
}

// ResultPath returns where the result for a document is written.
func (q *Queue) ResultPath(docPath string) string {
	return docPath + resultSuffix
}
