package index

import (
	"reflect"
	"testing"
	"time"

	"github.com/aidanlsb/mdb/internal/query"
)

func testDocument(name string) *Document {
	return &Document{
		Path:       "/notes/" + name + ".md",
		Folder:     "/notes",
		Name:       name,
		Ext:        "md",
		Title:      "Title of " + name,
		Size:       1000,
		CreatedAt:  time.Unix(1704067200, 0).UTC(),
		ModifiedAt: time.Unix(1704067200, 0).UTC(),
		Body:       "Content of " + name,
		Tags:       []string{"test", "example"},
		Links:      []string{"other"},
		Embeds:     []string{"img.png"},
		Properties: map[string]interface{}{"status": "active", "priority": float64(2)},
	}
}

func openTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertAndModTime(t *testing.T) {
	db := openTestDB(t)
	doc := testDocument("a")

	if err := db.UpsertDocument(doc); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}

	mtime, ok, err := db.ModTime(doc.Path)
	if err != nil {
		t.Fatalf("ModTime: %v", err)
	}
	if !ok {
		t.Fatal("expected stored mtime")
	}
	if !mtime.Equal(doc.ModifiedAt) {
		t.Errorf("mtime = %v, want %v", mtime, doc.ModifiedAt)
	}
}

func TestModTimeMissing(t *testing.T) {
	db := openTestDB(t)
	_, ok, err := db.ModTime("/nonexistent.md")
	if err != nil {
		t.Fatalf("ModTime: %v", err)
	}
	if ok {
		t.Error("expected no stored mtime")
	}
}

func TestUpsertOverwritesNeverDuplicates(t *testing.T) {
	db := openTestDB(t)
	doc := testDocument("a")

	if err := db.UpsertDocument(doc); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	doc.Size = 2000
	doc.ModifiedAt = time.Unix(1704153600, 0).UTC()
	if err := db.UpsertDocument(doc); err != nil {
		t.Fatalf("UpsertDocument (second): %v", err)
	}

	n, err := db.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}

	mtime, _, err := db.ModTime(doc.Path)
	if err != nil {
		t.Fatalf("ModTime: %v", err)
	}
	if mtime.Unix() != 1704153600 {
		t.Errorf("mtime = %v after overwrite", mtime)
	}
}

func TestGetDocumentRoundTrip(t *testing.T) {
	db := openTestDB(t)
	doc := testDocument("a")
	if err := db.UpsertDocument(doc); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}

	got, err := db.GetDocument(doc.Path)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got == nil {
		t.Fatal("document not found")
	}
	if !reflect.DeepEqual(got.Tags, doc.Tags) {
		t.Errorf("Tags = %v, want %v", got.Tags, doc.Tags)
	}
	if !reflect.DeepEqual(got.Properties, doc.Properties) {
		t.Errorf("Properties = %#v, want %#v", got.Properties, doc.Properties)
	}
	if got.Body != doc.Body || got.Title != doc.Title {
		t.Errorf("Body/Title mismatch: %+v", got)
	}

	missing, err := db.GetDocument("/nope.md")
	if err != nil {
		t.Fatalf("GetDocument (missing): %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing document")
	}
}

func TestLinkGraphAndBacklinks(t *testing.T) {
	db := openTestDB(t)

	a := testDocument("a")
	a.Links = []string{"b"}
	b := testDocument("b")
	b.Links = nil

	for _, doc := range []*Document{a, b} {
		if err := db.UpsertDocument(doc); err != nil {
			t.Fatalf("UpsertDocument: %v", err)
		}
	}

	entries, err := db.LinkGraph()
	if err != nil {
		t.Fatalf("LinkGraph: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	if err := db.UpdateBacklinks(b.Path, []string{a.Path}); err != nil {
		t.Fatalf("UpdateBacklinks: %v", err)
	}
	got, err := db.GetDocument(b.Path)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if want := []string{a.Path}; !reflect.DeepEqual(got.Backlinks, want) {
		t.Errorf("Backlinks = %v, want %v", got.Backlinks, want)
	}
}

func TestExecutePredicate(t *testing.T) {
	db := openTestDB(t)

	small := testDocument("small")
	small.Size = 50
	small.Tags = []string{"todo"}
	big := testDocument("big")
	big.Size = 500
	big.Tags = []string{"todo", "done"}
	other := testDocument("other")
	other.Size = 500
	other.Tags = nil

	for _, doc := range []*Document{small, big, other} {
		if err := db.UpsertDocument(doc); err != nil {
			t.Fatalf("UpsertDocument: %v", err)
		}
	}

	compiled, err := query.Build("has(tags, 'todo') and size > 100")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	projection, err := query.ResolveProjection("path, modified_at")
	if err != nil {
		t.Fatalf("ResolveProjection: %v", err)
	}

	result, err := db.Execute(compiled.Predicate, compiled.Binds, projection, 0)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("got %d rows, want 1: %+v", len(result.Rows), result.Rows)
	}
	if result.Rows[0][0] != big.Path {
		t.Errorf("row = %v, want %s", result.Rows[0], big.Path)
	}

	// Timestamps surface as raw typed instants, not strings.
	if _, ok := result.Rows[0][1].(time.Time); !ok {
		t.Errorf("modified_at = %T, want time.Time", result.Rows[0][1])
	}
}

func TestExecutePropertyPredicate(t *testing.T) {
	db := openTestDB(t)

	active := testDocument("active")
	idle := testDocument("idle")
	idle.Properties = map[string]interface{}{"status": "idle"}
	for _, doc := range []*Document{active, idle} {
		if err := db.UpsertDocument(doc); err != nil {
			t.Fatalf("UpsertDocument: %v", err)
		}
	}

	compiled, err := query.Build("status == 'active'")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	projection, _ := query.ResolveProjection("path")

	result, err := db.Execute(compiled.Predicate, compiled.Binds, projection, 0)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0][0] != active.Path {
		t.Errorf("rows = %+v, want only %s", result.Rows, active.Path)
	}
}

func TestExecuteLimit(t *testing.T) {
	db := openTestDB(t)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		if err := db.UpsertDocument(testDocument(name)); err != nil {
			t.Fatalf("UpsertDocument: %v", err)
		}
	}

	compiled, err := query.Build("size > 0")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	projection, _ := query.ResolveProjection("path")

	result, err := db.Execute(compiled.Predicate, compiled.Binds, projection, 2)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Errorf("got %d rows, want 2", len(result.Rows))
	}
}

func TestRemoveDocument(t *testing.T) {
	db := openTestDB(t)
	doc := testDocument("a")
	if err := db.UpsertDocument(doc); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	if err := db.RemoveDocument(doc.Path); err != nil {
		t.Fatalf("RemoveDocument: %v", err)
	}
	n, _ := db.Count()
	if n != 0 {
		t.Errorf("Count = %d after remove", n)
	}
	if err := db.RemoveDocument("/never-indexed.md"); err != nil {
		t.Errorf("removing unknown path: %v", err)
	}
}

func TestOpenCreatesParentDirs(t *testing.T) {
	path := t.TempDir() + "/.mdb/mdb.db"
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	// Re-opening must be idempotent.
	db2, err := Open(path)
	if err != nil {
		t.Fatalf("Open (second): %v", err)
	}
	db2.Close()
}
