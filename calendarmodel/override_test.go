package calendarmodel

import "testing"

func TestOverrideMapSetMaintainsOrder(t *testing.T) {
	m := NewOverrideMap()
	m.Set(300, &OccurrenceOverride{})
	m.Set(100, &OccurrenceOverride{})
	m.Set(200, &OccurrenceOverride{})

	want := []Timestamp{100, 200, 300}
	got := m.All()
	if len(got) != len(want) {
		t.Fatalf("want %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("All()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestOverrideMapSetReplacesExisting(t *testing.T) {
	m := NewOverrideMap()
	first := &OccurrenceOverride{LastModified: Timestamp(1).Time()}
	second := &OccurrenceOverride{LastModified: Timestamp(2).Time()}

	m.Set(100, first)
	m.Set(100, second)

	if m.Len() != 1 {
		t.Fatalf("want 1 entry after re-setting the same timestamp, got %d", m.Len())
	}
	got, ok := m.Get(100)
	if !ok || got != second {
		t.Fatal("Set should replace, not duplicate, an existing timestamp's entry")
	}
}

func TestOverrideMapDelete(t *testing.T) {
	m := NewOverrideMap()
	m.Set(100, &OccurrenceOverride{})
	m.Set(200, &OccurrenceOverride{})

	removed, ok := m.Delete(100)
	if !ok || removed == nil {
		t.Fatal("expected to delete the override at 100")
	}
	if m.Len() != 1 {
		t.Fatalf("want 1 remaining entry, got %d", m.Len())
	}
	if _, ok := m.Get(100); ok {
		t.Fatal("100 should no longer be present")
	}
	if _, ok := m.Delete(100); ok {
		t.Fatal("deleting an already-deleted timestamp should report false")
	}
}

func TestOverrideMapRangeInclusivity(t *testing.T) {
	m := NewOverrideMap()
	for _, ts := range []Timestamp{100, 200, 300, 400} {
		m.Set(ts, &OccurrenceOverride{})
	}

	inclusive := m.Range(Bound{Kind: Included, Value: 200}, Bound{Kind: Included, Value: 300})
	if !timestampsEqual(inclusive, []Timestamp{200, 300}) {
		t.Fatalf("inclusive range: got %v", inclusive)
	}

	exclusive := m.Range(Bound{Kind: Excluded, Value: 200}, Bound{Kind: Excluded, Value: 300})
	if !timestampsEqual(exclusive, nil) {
		t.Fatalf("exclusive range around no interior point: got %v", exclusive)
	}

	mixed := m.Range(Bound{Kind: Excluded, Value: 100}, Bound{Kind: Included, Value: 300})
	if !timestampsEqual(mixed, []Timestamp{200, 300}) {
		t.Fatalf("mixed range: got %v", mixed)
	}

	all := m.Range(Bound{Kind: Included, Value: 0}, Bound{Kind: Included, Value: 1000})
	if !timestampsEqual(all, []Timestamp{100, 200, 300, 400}) {
		t.Fatalf("full-span range: got %v", all)
	}
}

func timestampsEqual(a, b []Timestamp) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOccurrenceOverrideTermsForClearedVsUnset(t *testing.T) {
	var nilOverride *OccurrenceOverride
	if terms, overridden := nilOverride.termsFor(FamilyCategories); overridden || terms != nil {
		t.Fatal("a nil override must report not-overridden for every family")
	}

	emptyClass := ""
	o := &OccurrenceOverride{Class: &emptyClass}
	terms, overridden := o.termsFor(FamilyClass)
	if !overridden {
		t.Fatal("a present (even empty) Class override must report overridden")
	}
	if terms != nil {
		t.Fatal("an empty Class override clears the base class, yielding no terms")
	}

	setClass := "confidential"
	o2 := &OccurrenceOverride{Class: &setClass}
	terms2, overridden2 := o2.termsFor(FamilyClass)
	if !overridden2 {
		t.Fatal("a set Class override must report overridden")
	}
	if _, ok := terms2["confidential"]; !ok || len(terms2) != 1 {
		t.Fatalf("want {confidential}, got %v", terms2)
	}
}

func TestOccurrenceOverrideTermsForRelatedTo(t *testing.T) {
	rel := map[string]map[string]struct{}{
		"PARENT": {"uid-1": {}},
	}
	o := &OccurrenceOverride{RelatedTo: &rel}
	terms, overridden := o.termsFor(FamilyRelatedTo)
	if !overridden {
		t.Fatal("RelatedTo override should report overridden")
	}
	want := KeyValuePair{Key: "PARENT", Value: "uid-1"}.Encode()
	if _, ok := terms[want]; !ok || len(terms) != 1 {
		t.Fatalf("want {%q}, got %v", want, terms)
	}
}
