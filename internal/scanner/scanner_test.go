package scanner

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/aidanlsb/mdb/internal/index"
)

func openTestDB(t *testing.T) *index.Database {
	t.Helper()
	db, err := index.OpenInMemory()
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestScanIndexesMarkdownFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "# Alpha\n\nHello #todo")
	writeFile(t, dir, "sub/b.md", "Links to [[a]]")
	writeFile(t, dir, "notes.txt", "not markdown")
	writeFile(t, dir, ".hidden/c.md", "should be skipped")

	db := openTestDB(t)
	stats, err := Scan(dir, db, Options{Log: io.Discard})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if stats.Indexed != 2 {
		t.Errorf("Indexed = %d, want 2", stats.Indexed)
	}
	if stats.Failed != 0 {
		t.Errorf("Failed = %d, want 0: %v", stats.Failed, stats.Errors)
	}

	count, err := db.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("document count = %d, want 2", count)
	}

	doc, err := db.GetDocument(filepath.Join(dir, "a.md"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc == nil {
		t.Fatal("a.md not indexed")
	}
	if doc.Title != "Alpha" {
		t.Errorf("Title = %q, want %q", doc.Title, "Alpha")
	}
	if doc.Name != "a" || doc.Ext != "md" {
		t.Errorf("Name/Ext = %q/%q, want a/md", doc.Name, doc.Ext)
	}
	if !reflect.DeepEqual(doc.Tags, []string{"todo"}) {
		t.Errorf("Tags = %v, want [todo]", doc.Tags)
	}
}

func TestScanSkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "unchanged")

	db := openTestDB(t)
	if _, err := Scan(dir, db, Options{}); err != nil {
		t.Fatalf("first scan: %v", err)
	}

	stats, err := Scan(dir, db, Options{})
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if stats.Indexed != 0 {
		t.Errorf("Indexed = %d, want 0 on unchanged re-scan", stats.Indexed)
	}
	if stats.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", stats.Skipped)
	}
}

func TestScanReindexesTouchedFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.md", "one")
	writeFile(t, dir, "b.md", "two")

	db := openTestDB(t)
	if _, err := Scan(dir, db, Options{}); err != nil {
		t.Fatalf("first scan: %v", err)
	}

	future := time.Now().Add(2 * time.Hour)
	if err := os.Chtimes(a, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	stats, err := Scan(dir, db, Options{})
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if stats.Indexed != 1 || stats.Skipped != 1 {
		t.Errorf("Indexed/Skipped = %d/%d, want 1/1", stats.Indexed, stats.Skipped)
	}
}

func TestScanForceReindexesAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "one")
	writeFile(t, dir, "b.md", "two")

	db := openTestDB(t)
	if _, err := Scan(dir, db, Options{}); err != nil {
		t.Fatalf("first scan: %v", err)
	}

	stats, err := Scan(dir, db, Options{Force: true})
	if err != nil {
		t.Fatalf("force scan: %v", err)
	}
	if stats.Indexed != 2 {
		t.Errorf("Indexed = %d, want 2 with Force", stats.Indexed)
	}
}

func TestScanPreservesCreatedAt(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.md", "one")

	db := openTestDB(t)
	if _, err := Scan(dir, db, Options{}); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	first, err := db.GetDocument(a)
	if err != nil || first == nil {
		t.Fatalf("get after first scan: doc=%v err=%v", first, err)
	}

	future := time.Now().Add(2 * time.Hour)
	if err := os.Chtimes(a, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if _, err := Scan(dir, db, Options{}); err != nil {
		t.Fatalf("second scan: %v", err)
	}

	second, err := db.GetDocument(a)
	if err != nil || second == nil {
		t.Fatalf("get after second scan: doc=%v err=%v", second, err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed across re-index: %v -> %v", first.CreatedAt, second.CreatedAt)
	}
	if !second.ModifiedAt.After(first.ModifiedAt) {
		t.Errorf("ModifiedAt not advanced: %v -> %v", first.ModifiedAt, second.ModifiedAt)
	}
}

func TestBacklinks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "target.md", "# Target Note\n\nbody")
	writeFile(t, dir, "by-name.md", "See [[target]]")
	writeFile(t, dir, "by-path.md", "See [["+filepath.Join(dir, "target.md")+"]]")
	writeFile(t, dir, "by-slug.md", "See [[Target]]")
	writeFile(t, dir, "anchored.md", "See [[target#heading]]")
	writeFile(t, dir, "self.md", "I link [[self]]")

	db := openTestDB(t)
	stats, err := Scan(dir, db, Options{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if stats.BacklinksUpdated == 0 {
		t.Fatal("no backlinks written")
	}

	doc, err := db.GetDocument(filepath.Join(dir, "target.md"))
	if err != nil || doc == nil {
		t.Fatalf("get target: doc=%v err=%v", doc, err)
	}
	want := []string{
		filepath.Join(dir, "anchored.md"),
		filepath.Join(dir, "by-name.md"),
		filepath.Join(dir, "by-path.md"),
		filepath.Join(dir, "by-slug.md"),
	}
	if !reflect.DeepEqual(doc.Backlinks, want) {
		t.Errorf("Backlinks = %v, want %v", doc.Backlinks, want)
	}

	self, err := db.GetDocument(filepath.Join(dir, "self.md"))
	if err != nil || self == nil {
		t.Fatalf("get self: doc=%v err=%v", self, err)
	}
	if len(self.Backlinks) != 0 {
		t.Errorf("self-link produced backlinks: %v", self.Backlinks)
	}
}

func TestBacklinkPassIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "body")
	writeFile(t, dir, "b.md", "[[a]]")

	db := openTestDB(t)
	if _, err := Scan(dir, db, Options{}); err != nil {
		t.Fatalf("first scan: %v", err)
	}

	stats, err := Scan(dir, db, Options{})
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if stats.BacklinksUpdated != 0 {
		t.Errorf("BacklinksUpdated = %d on unchanged re-scan, want 0", stats.BacklinksUpdated)
	}
}

func TestScanMalformedFrontmatterStillIndexes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.md", "---\nkey: [unclosed\n---\nbody here")

	db := openTestDB(t)
	stats, err := Scan(dir, db, Options{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if stats.Indexed != 1 || stats.Failed != 0 {
		t.Errorf("Indexed/Failed = %d/%d, want 1/0", stats.Indexed, stats.Failed)
	}

	doc, err := db.GetDocument(filepath.Join(dir, "bad.md"))
	if err != nil || doc == nil {
		t.Fatalf("get: doc=%v err=%v", doc, err)
	}
	if len(doc.Properties) != 0 {
		t.Errorf("Properties = %v, want empty on malformed frontmatter", doc.Properties)
	}
}
