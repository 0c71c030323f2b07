package occupancy

import "sort"

// ChargeTypeSelection records which charge types take part in aggregation.
// Values are immutable; use Toggle to derive a new selection.
type ChargeTypeSelection struct {
	included map[Category]bool
}

// NewChargeTypeSelection includes every given category.
func NewChargeTypeSelection(categories ...Category) ChargeTypeSelection {
	included := make(map[Category]bool, len(categories))
	for _, category := range categories {
		included[category] = true
	}
	return ChargeTypeSelection{included: included}
}

// SelectOnly marks every catalog category excluded except the listed ones.
// Listed categories outside the catalog are ignored.
func SelectOnly(catalog []Category, only []Category) ChargeTypeSelection {
	wanted := make(map[Category]struct{}, len(only))
	for _, category := range only {
		wanted[category] = struct{}{}
	}
	included := make(map[Category]bool, len(catalog))
	for _, category := range catalog {
		_, ok := wanted[category]
		included[category] = ok
	}
	return ChargeTypeSelection{included: included}
}

// Includes reports whether records of category are kept. Unknown categories are not.
func (s ChargeTypeSelection) Includes(category Category) bool {
	return s.included[category]
}

// Categories returns a copy of every category flag.
func (s ChargeTypeSelection) Categories() map[Category]bool {
	out := make(map[Category]bool, len(s.included))
	for category, ok := range s.included {
		out[category] = ok
	}
	return out
}

// Included returns the included categories sorted by name.
func (s ChargeTypeSelection) Included() []Category {
	out := make([]Category, 0, len(s.included))
	for category, ok := range s.included {
		if ok {
			out = append(out, category)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Toggle returns a copy of selection with category's flag flipped.
func Toggle(selection ChargeTypeSelection, category Category) ChargeTypeSelection {
	next := make(map[Category]bool, len(selection.included)+1)
	for c, ok := range selection.included {
		next[c] = ok
	}
	next[category] = !selection.included[category]
	return ChargeTypeSelection{included: next}
}

// FilterByChargeType keeps the records whose category is included, in input order.
func FilterByChargeType(records []ChargePointRecord, selection ChargeTypeSelection) []ChargePointRecord {
	filtered := make([]ChargePointRecord, 0, len(records))
	for _, record := range records {
		if selection.Includes(record.Category) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}
