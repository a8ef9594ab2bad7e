package wordidx

import "testing"

func TestAddIfAbsentStableAndFirstSeenOrder(t *testing.T) {
	idx := New()
	a := idx.AddIfAbsent("casa")
	b := idx.AddIfAbsent("casa")
	if a != b {
		t.Fatalf("AddIfAbsent should return the same ID for repeated text, got %d and %d", a, b)
	}
	c := idx.AddIfAbsent("perro")
	if c == a {
		t.Fatalf("distinct words must get distinct IDs")
	}
	if a != FirstValid {
		t.Errorf("first word should get FirstValid ID, got %d", a)
	}
}

func TestGetUnknownForUnseenWord(t *testing.T) {
	idx := New()
	idx.AddIfAbsent("house")
	if got := idx.Get("unseen"); got != Unknown {
		t.Errorf("Get on an unseen word should return Unknown, got %d", got)
	}
}

func TestTextRoundTrip(t *testing.T) {
	idx := New()
	id := idx.AddIfAbsent("mesa")
	text, ok := idx.Text(id)
	if !ok || text != "mesa" {
		t.Errorf("Text(%d) = (%q, %v), want (\"mesa\", true)", id, text, ok)
	}
	if _, ok := idx.Text(Unknown); ok {
		t.Errorf("Text(Unknown) should report not found")
	}
}

func TestCombinePhraseOrderSensitive(t *testing.T) {
	ab := CombinePhrase([]WordID{10, 20})
	ba := CombinePhrase([]WordID{20, 10})
	if ab == ba {
		t.Errorf("CombinePhrase should not be symmetric: [10,20] and [20,10] collided")
	}
	again := CombinePhrase([]WordID{10, 20})
	if ab != again {
		t.Errorf("CombinePhrase should be deterministic for the same input")
	}
}

func TestCombinePhraseEmptyAndUnknown(t *testing.T) {
	if got := CombinePhrase(nil); got != PhraseUndefined {
		t.Errorf("CombinePhrase(nil) = %d, want PhraseUndefined", got)
	}
	if got := CombinePhrase([]WordID{Unknown}); got != PhraseUnknown {
		t.Errorf("CombinePhrase([Unknown]) = %d, want PhraseUnknown", got)
	}
}

func TestCombineTranslationPairOrderSensitive(t *testing.T) {
	p1 := CombineTranslationPair(100, 200)
	p2 := CombineTranslationPair(200, 100)
	if p1 == p2 {
		t.Errorf("CombineTranslationPair should not be symmetric")
	}
}
