package extract

import (
	"reflect"
	"testing"

	"github.com/shikhar5647/scene-graph-agent/internal/segment"
	"github.com/shikhar5647/scene-graph-agent/internal/taxonomy"
)

func testExtractor(t *testing.T) *Extractor {
	t.Helper()
	return NewExtractor(taxonomy.Default())
}

func sentence(idx int, text string) segment.Sentence {
	return segment.Sentence{Index: idx, Section: segment.SectionFindings, Text: text}
}

func objects(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Object)
	}
	return out
}

func TestFromSentence_NoAnatomicalReference(t *testing.T) {
	e := testExtractor(t)
	controls := []string{
		"Patient tolerated the procedure well.",
		"Comparison was made with the prior study.",
		"The study is of good quality.",
	}
	for _, text := range controls {
		if got := e.FromSentence(sentence(0, text)); len(got) != 0 {
			t.Errorf("%q: expected zero candidates, got %v", text, got)
		}
	}
}

func TestFromSentence_CoordinatedZones(t *testing.T) {
	e := testExtractor(t)
	got := e.FromSentence(sentence(3, "Patchy opacities are seen in the right mid and lower lung zones."))
	want := []string{"right lower lung zone", "right mid lung zone"}
	if !reflect.DeepEqual(objects(got), want) {
		t.Fatalf("expected %v, got %v", want, objects(got))
	}
	for _, c := range got {
		if c.Phrase != "right mid and lower lung zones" {
			t.Errorf("expected coordination phrase, got %q", c.Phrase)
		}
		if c.SentenceIndex != 3 {
			t.Errorf("expected sentence index 3, got %d", c.SentenceIndex)
		}
	}
}

func TestFromSentence_PluralLungs(t *testing.T) {
	e := testExtractor(t)
	got := e.FromSentence(sentence(0, "The lungs are clear."))
	want := []string{"left lung", "right lung"}
	if !reflect.DeepEqual(objects(got), want) {
		t.Fatalf("expected %v, got %v", want, objects(got))
	}
}

func TestFromSentence_PleuralRoutesToCostophrenicAngles(t *testing.T) {
	e := testExtractor(t)

	got := e.FromSentence(sentence(0, "No pleural effusion or pneumothorax."))
	want := []string{"left costophrenic angle", "right costophrenic angle"}
	if !reflect.DeepEqual(objects(got), want) {
		t.Fatalf("expected %v, got %v", want, objects(got))
	}

	got = e.FromSentence(sentence(0, "Small left pleural effusion."))
	want = []string{"left costophrenic angle"}
	if !reflect.DeepEqual(objects(got), want) {
		t.Fatalf("expected %v, got %v", want, objects(got))
	}

	// An explicit costophrenic mention wins over routing.
	got = e.FromSentence(sentence(0, "The right costophrenic angle is blunted by a small effusion."))
	want = []string{"right costophrenic angle"}
	if !reflect.DeepEqual(objects(got), want) {
		t.Fatalf("expected %v, got %v", want, objects(got))
	}
}

func TestFromSentence_CardiacAliases(t *testing.T) {
	e := testExtractor(t)
	tests := []struct {
		text   string
		phrase string
	}{
		{"The cardiac silhouette is normal in size.", "cardiac silhouette"},
		{"No cardiomegaly.", "cardiomegaly"},
		{"Heart size is normal, measuring 5.2 cm.", "heart size"},
	}
	for _, tc := range tests {
		got := e.FromSentence(sentence(0, tc.text))
		if len(got) != 1 || got[0].Object != "cardiac silhouette" {
			t.Errorf("%q: expected single cardiac silhouette candidate, got %v", tc.text, got)
			continue
		}
		if got[0].Phrase != tc.phrase {
			t.Errorf("%q: expected phrase %q, got %q", tc.text, tc.phrase, got[0].Phrase)
		}
	}
}

func TestFromSentence_SidedAliasDoesNotDragOppositeSide(t *testing.T) {
	e := testExtractor(t)

	got := e.FromSentence(sentence(0, "The right hemidiaphragm is elevated."))
	want := []string{"right hemidiaphragm"}
	if !reflect.DeepEqual(objects(got), want) {
		t.Fatalf("expected %v, got %v", want, objects(got))
	}

	// Unsided singular expands to both.
	got = e.FromSentence(sentence(0, "The diaphragm is flattened."))
	want = []string{"right hemidiaphragm", "left hemidiaphragm"}
	if !reflect.DeepEqual(objects(got), want) {
		t.Fatalf("expected %v, got %v", want, objects(got))
	}
}

func TestFromSentence_UnsidedHilar(t *testing.T) {
	e := testExtractor(t)
	got := e.FromSentence(sentence(0, "No hilar enlargement."))
	want := []string{"right hilar structures", "left hilar structures"}
	if !reflect.DeepEqual(objects(got), want) {
		t.Fatalf("expected %v, got %v", want, objects(got))
	}
}

func TestFromSentence_CaseInsensitive(t *testing.T) {
	e := testExtractor(t)
	got := e.FromSentence(sentence(0, "RIGHT LOWER LOBE OPACITY IS PRESENT."))
	want := []string{"right lower lung zone"}
	if !reflect.DeepEqual(objects(got), want) {
		t.Fatalf("expected %v, got %v", want, objects(got))
	}
}

func TestFromSentence_WordBoundaries(t *testing.T) {
	e := testExtractor(t)
	// "carinal" must not match "carina" mid-word in an unrelated token.
	got := e.FromSentence(sentence(0, "Pericardial effusion is suspected."))
	for _, c := range got {
		if c.Object == "carina" {
			t.Errorf("carina matched inside %q", "pericardial")
		}
		if c.Object == "cardiac silhouette" {
			t.Errorf("heart alias matched inside %q", "pericardial")
		}
	}
}

func TestFromSentence_Deterministic(t *testing.T) {
	e := testExtractor(t)
	s := sentence(2, "Patchy opacities in the right mid and lower lung zones with small left pleural effusion.")
	first := e.FromSentence(s)
	for range 10 {
		if got := e.FromSentence(s); !reflect.DeepEqual(got, first) {
			t.Fatalf("extraction not deterministic: %v vs %v", first, got)
		}
	}
}

func TestFromSentences_IndexesPreserved(t *testing.T) {
	e := testExtractor(t)
	sents := []segment.Sentence{
		sentence(0, "The lungs are clear."),
		sentence(1, "Patient tolerated the procedure well."),
		sentence(2, "No cardiomegaly."),
	}
	got := e.FromSentences(sents)
	if len(got) != 3 {
		t.Fatalf("expected 3 candidates, got %d: %v", len(got), got)
	}
	if got[0].SentenceIndex != 0 || got[1].SentenceIndex != 0 || got[2].SentenceIndex != 2 {
		t.Errorf("unexpected sentence indexes: %v", got)
	}
}
