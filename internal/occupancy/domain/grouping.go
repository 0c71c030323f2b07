package occupancy

// LocationGroup is the set of records sharing one coordinate.
type LocationGroup struct {
	Location Location
	Records  []ChargePointRecord
}

// Address returns the display address of the group's first record.
func (g LocationGroup) Address() string {
	if len(g.Records) == 0 {
		return ""
	}
	return g.Records[0].Address
}

// GroupByLocation groups records by exact coordinate in first-seen order.
// Every returned group holds at least one record.
func GroupByLocation(records []ChargePointRecord) []LocationGroup {
	index := make(map[Location]int, len(records))
	groups := make([]LocationGroup, 0, len(records))
	for _, record := range records {
		i, ok := index[record.Location]
		if !ok {
			i = len(groups)
			index[record.Location] = i
			groups = append(groups, LocationGroup{Location: record.Location})
		}
		groups[i].Records = append(groups[i].Records, record)
	}
	return groups
}
