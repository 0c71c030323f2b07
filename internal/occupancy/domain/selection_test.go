package occupancy

import (
	"reflect"
	"testing"
)

func sampleRecords() []ChargePointRecord {
	return []ChargePointRecord{
		{ID: "cp-1", Category: CategoryStandardType2},
		{ID: "cp-2", Category: CategoryComboCCS},
		{ID: "cp-3", Category: CategoryCHAdeMO},
		{ID: "cp-4", Category: CategoryStandardType2},
		{ID: "cp-5", Category: Category("Tesla")},
	}
}

func recordIDs(records []ChargePointRecord) []string {
	ids := make([]string, 0, len(records))
	for _, record := range records {
		ids = append(ids, record.ID)
	}
	return ids
}

func TestFilterByChargeType_DefaultKeepsCatalog(t *testing.T) {
	selection := NewChargeTypeSelection(DefaultCategories()...)
	got := recordIDs(FilterByChargeType(sampleRecords(), selection))
	want := []string{"cp-1", "cp-2", "cp-3", "cp-4"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFilterByChargeType_Idempotent(t *testing.T) {
	selection := Toggle(NewChargeTypeSelection(DefaultCategories()...), CategoryComboCCS)
	once := FilterByChargeType(sampleRecords(), selection)
	twice := FilterByChargeType(once, selection)
	if !reflect.DeepEqual(recordIDs(once), recordIDs(twice)) {
		t.Fatalf("filter not idempotent: %v vs %v", recordIDs(once), recordIDs(twice))
	}
	if !reflect.DeepEqual(recordIDs(once), []string{"cp-1", "cp-3", "cp-4"}) {
		t.Fatalf("unexpected filtered ids: %v", recordIDs(once))
	}
}

func TestToggle_DoesNotMutate(t *testing.T) {
	original := NewChargeTypeSelection(DefaultCategories()...)
	toggled := Toggle(original, CategoryServices)
	if !original.Includes(CategoryServices) {
		t.Fatalf("toggle mutated the original selection")
	}
	if toggled.Includes(CategoryServices) {
		t.Fatalf("toggle did not exclude Services")
	}
	back := Toggle(toggled, CategoryServices)
	if !back.Includes(CategoryServices) {
		t.Fatalf("second toggle did not include Services")
	}
}

func TestFilterByChargeType_EmptySelection(t *testing.T) {
	selection := SelectOnly(DefaultCategories(), nil)
	filtered := FilterByChargeType(sampleRecords(), selection)
	if len(filtered) != 0 {
		t.Fatalf("expected no records, got %v", recordIDs(filtered))
	}
	if groups := GroupByLocation(filtered); len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}

func TestSelectOnly(t *testing.T) {
	selection := SelectOnly(DefaultCategories(), []Category{CategoryCHAdeMO, Category("Unknown")})
	want := []Category{CategoryCHAdeMO}
	if got := selection.Included(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(selection.Categories()) != len(DefaultCategories()) {
		t.Fatalf("expected every catalog category to be listed")
	}
}
