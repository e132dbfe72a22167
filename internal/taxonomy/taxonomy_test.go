package taxonomy

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault_ObjectCount(t *testing.T) {
	r := Default()
	if r.NumObjects() != 29 {
		t.Fatalf("expected 29 objects, got %d", r.NumObjects())
	}
	objs := r.Objects()
	for i, o := range objs {
		if o.ID != i {
			t.Errorf("object %q: expected id %d, got %d", o.Name, i, o.ID)
		}
	}
}

func TestDefault_LookupKnownObjects(t *testing.T) {
	r := Default()
	tests := []struct {
		name string
		id   int
	}{
		{"left lung", 0},
		{"cardiac silhouette", 2},
		{"right mid lung zone", 12},
		{"spine", 28},
	}
	for _, tc := range tests {
		o, ok := r.Lookup(tc.name)
		if !ok {
			t.Errorf("expected to find %q", tc.name)
			continue
		}
		if o.ID != tc.id {
			t.Errorf("%q: expected id %d, got %d", tc.name, tc.id, o.ID)
		}
		if o.CategoryID != 0 {
			t.Errorf("%q: expected anatomical category 0, got %d", tc.name, o.CategoryID)
		}
	}
}

func TestDefault_LookupUnknownObject(t *testing.T) {
	r := Default()
	if _, ok := r.Lookup("pleura"); ok {
		t.Error("expected no standalone pleura object")
	}
	if _, ok := r.Lookup("Left Lung"); ok {
		t.Error("lookup is exact-match; expected case-sensitive miss")
	}
}

func TestDefault_Categories(t *testing.T) {
	r := Default()
	cats := r.Categories()
	if len(cats) != 6 {
		t.Fatalf("expected 6 categories, got %d", len(cats))
	}
	for _, c := range []string{"anatomicalfinding", "disease", "nlp", "technicalassessment", "tubesandlines", "devices"} {
		if !r.IsCategory(c) {
			t.Errorf("expected %q to be a category", c)
		}
	}
	if r.IsCategory("anatomy") {
		t.Error("unexpected category match for \"anatomy\"")
	}
}

func TestDefault_AttributeVocabulary(t *testing.T) {
	r := Default()
	if r.NumAttributes() == 0 {
		t.Fatal("expected non-empty attribute vocabulary")
	}
	attrs := r.Attributes()
	for i, a := range attrs {
		if a.Label != strings.ToLower(a.Label) {
			t.Errorf("attribute %q is not lowercase", a.Label)
		}
		if a.Family == "" {
			t.Errorf("attribute %q has no family", a.Label)
		}
		idx, ok := r.AttributeIndex(a.Label)
		if !ok || idx != i {
			t.Errorf("attribute %q: expected index %d, got %d (ok=%v)", a.Label, i, idx, ok)
		}
	}
	if fam := r.AttributeFamily("pleural effusion"); fam != FamilyPleural {
		t.Errorf("expected pleural family for effusion, got %q", fam)
	}
	if fam := r.AttributeFamily("made-up-label"); fam != "" {
		t.Errorf("expected empty family for unknown label, got %q", fam)
	}
}

func TestDefault_AliasesIncludeObjectName(t *testing.T) {
	r := Default()
	for _, o := range r.Objects() {
		aliases := r.Aliases(o.Name)
		if len(aliases) == 0 || aliases[0] != o.Name {
			t.Errorf("%q: expected aliases to start with the object name, got %v", o.Name, aliases)
		}
		for _, a := range aliases {
			if a != strings.ToLower(a) {
				t.Errorf("%q: alias %q is not lowercase", o.Name, a)
			}
		}
	}
}

func TestLoad_OverridesAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.json")
	content := `{"aliases": {"trachea": ["airway"]}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	// Objects fall back to the compiled defaults.
	if r.NumObjects() != 29 {
		t.Fatalf("expected 29 default objects, got %d", r.NumObjects())
	}
	aliases := r.Aliases("trachea")
	if len(aliases) != 2 || aliases[1] != "airway" {
		t.Errorf("expected [trachea airway], got %v", aliases)
	}
	// Other objects lose their default aliases when the file overrides the section.
	if got := r.Aliases("cardiac silhouette"); len(got) != 1 {
		t.Errorf("expected only the object name for cardiac silhouette, got %v", got)
	}
}

func TestLoad_RejectsBadObjectIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.json")
	content := `{"objects": [{"name": "left lung", "id": 0}, {"name": "right lung", "id": 2}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for non-contiguous object ids")
	}
}

func TestLoad_RejectsBadCategoryID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.json")
	content := `{"objects": [{"name": "left lung", "id": 0, "category_id": 9}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for category id outside the vocabulary")
	}
}

func TestLoad_RejectsAliasForUnknownObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.json")
	content := `{"aliases": {"pleura": ["pleural space"]}}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for alias referencing unknown object")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
