package catalog

// Diff compares the previously displayed snapshot with a fresh one.
// A view whose kind changed (e.g. dropped view recreated as a table) shows up
// in both lists so the caller can replace its entry.
func Diff(prev, next Snapshot) (added, removed []View) {
	seen := make(map[View]struct{}, len(prev))
	for _, v := range prev {
		seen[v] = struct{}{}
	}
	current := make(map[View]struct{}, len(next))
	for _, v := range next {
		current[v] = struct{}{}
		if _, ok := seen[v]; !ok {
			added = append(added, v)
		}
	}
	for _, v := range prev {
		if _, ok := current[v]; !ok {
			removed = append(removed, v)
		}
	}
	return added, removed
}
