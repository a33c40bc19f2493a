// Package scanner orchestrates the indexing pipeline: directory
// traversal, per-file extraction and upserts, and the global backlink
// pass that runs after every file has reached a terminal state.
package scanner

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/aidanlsb/mdb/internal/extract"
	"github.com/aidanlsb/mdb/internal/index"
)

// Options controls a scan run.
type Options struct {
	// Force re-extracts and upserts every file regardless of mtime.
	Force bool

	// Verbose logs each indexed path to Log.
	Verbose bool

	// Log receives verbose output. Defaults to os.Stdout.
	Log io.Writer
}

// FileError records a per-file failure that did not abort the run.
type FileError struct {
	Path string
	Err  error
}

// Stats summarizes a scan run.
type Stats struct {
	Indexed          int
	Skipped          int
	Failed           int
	BacklinksUpdated int
	Errors           []FileError
}

// Scan walks baseDir, indexes new and changed markdown files, then runs
// the global backlink pass. Per-file I/O errors are recorded and the
// scan continues; a store write failure aborts the run. The returned
// stats are valid even on error and describe the work completed before
// the failure.
func Scan(baseDir string, db *index.Database, opts Options) (*Stats, error) {
	log := opts.Log
	if log == nil {
		log = os.Stdout
	}

	stats := &Stats{}

	walkErr := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			stats.Failed++
			stats.Errors = append(stats.Errors, FileError{Path: path, Err: err})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			// Skip hidden directories, including the database directory.
			if name := d.Name(); strings.HasPrefix(name, ".") && path != baseDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".md") {
			return nil
		}

		indexed, err := scanFile(path, db, opts)
		if err != nil {
			if storeErr, ok := err.(*storeError); ok {
				// Store failures are fatal for the whole run.
				return storeErr.err
			}
			stats.Failed++
			stats.Errors = append(stats.Errors, FileError{Path: path, Err: err})
			return nil
		}
		if indexed {
			stats.Indexed++
			if opts.Verbose {
				fmt.Fprintf(log, "Indexed: %s\n", path)
			}
		} else {
			stats.Skipped++
		}
		return nil
	})
	if walkErr != nil {
		return stats, walkErr
	}

	updated, err := backlinkPass(db)
	if err != nil {
		return stats, fmt.Errorf("backlink pass failed: %w", err)
	}
	stats.BacklinksUpdated = updated

	return stats, nil
}

// IndexFile extracts and upserts a single markdown file. Returns false
// when the stored copy is already current and force is unset.
func IndexFile(path string, db *index.Database, force bool) (bool, error) {
	indexed, err := scanFile(path, db, Options{Force: force})
	if storeErr, ok := err.(*storeError); ok {
		return indexed, storeErr.err
	}
	return indexed, err
}

// RefreshBacklinks recomputes every document's backlink set from the
// current link graph. Returns the number of documents rewritten.
func RefreshBacklinks(db *index.Database) (int, error) {
	return backlinkPass(db)
}

// storeError marks a store write failure as fatal.
type storeError struct {
	err error
}

func (e *storeError) Error() string { return e.err.Error() }

// scanFile indexes one file. Returns false when the file is unchanged
// and was skipped.
func scanFile(path string, db *index.Database, opts Options) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	// The store keeps unix seconds, so compare at second granularity.
	fileMtime := info.ModTime().UTC().Truncate(time.Second)

	created, stored, ok, err := db.Times(path)
	if err != nil {
		return false, &storeError{err}
	}
	if ok && !opts.Force && !stored.Before(fileMtime) {
		return false, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	content := extract.Extract(string(raw))

	createdAt := fileMtime
	if ok {
		createdAt = created
	}

	doc := &index.Document{
		Path:       path,
		Folder:     filepath.Dir(path),
		Name:       strings.TrimSuffix(filepath.Base(path), ".md"),
		Ext:        "md",
		Title:      content.Title,
		Size:       info.Size(),
		CreatedAt:  createdAt,
		ModifiedAt: fileMtime,
		Body:       content.Body,
		Tags:       content.Tags,
		Links:      content.Links,
		Embeds:     content.Embeds,
		Properties: content.Properties,
	}

	if err := db.UpsertDocument(doc); err != nil {
		return false, &storeError{err}
	}
	return true, nil
}

// backlinkPass rebuilds the backlink set for every document from the
// full link graph and writes only the sets that changed. Runs after the
// scan completes, never interleaved with per-file upserts.
func backlinkPass(db *index.Database) (int, error) {
	entries, err := db.LinkGraph()
	if err != nil {
		return 0, err
	}

	// A link target resolves by path (with or without extension), by
	// bare name, or by slugified name.
	targets := make(map[string][]string)
	addTarget := func(key, path string) {
		if key == "" {
			return
		}
		targets[key] = append(targets[key], path)
	}
	for _, e := range entries {
		addTarget(e.Path, e.Path)
		addTarget(strings.TrimSuffix(e.Path, ".md"), e.Path)
		addTarget(e.Name, e.Path)
		addTarget(slug.Make(e.Name), e.Path)
	}

	computed := make(map[string]map[string]bool, len(entries))
	for _, e := range entries {
		computed[e.Path] = make(map[string]bool)
	}

	for _, e := range entries {
		for _, link := range e.Links {
			target := cleanTarget(link)
			matches := targets[target]
			if len(matches) == 0 {
				matches = targets[slug.Make(target)]
			}
			for _, match := range matches {
				if match != e.Path {
					computed[match][e.Path] = true
				}
			}
		}
	}

	updated := 0
	for _, e := range entries {
		want := sortedKeys(computed[e.Path])
		if sameSet(want, e.Backlinks) {
			continue
		}
		if err := db.UpdateBacklinks(e.Path, want); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// cleanTarget strips a heading anchor from a link target.
func cleanTarget(link string) string {
	target, _, _ := strings.Cut(link, "#")
	return strings.TrimSpace(target)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sameSet(sorted, other []string) bool {
	if len(sorted) != len(other) {
		return false
	}
	stored := append([]string(nil), other...)
	sort.Strings(stored)
	for i := range sorted {
		if sorted[i] != stored[i] {
			return false
		}
	}
	return true
}
