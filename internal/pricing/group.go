package pricing

// UnknownSupplierLabel keys lines whose supplier could not be resolved.
const UnknownSupplierLabel = "Nhà cung cấp không xác định"

// SupplierGroup is the run of display lines sold by one supplier.
type SupplierGroup struct {
	SupplierName     string
	SupplierImageURL string
	Lines            []DisplayLine
}

// GroupBySupplier partitions lines by supplier name. Groups appear in the
// order their supplier is first encountered and keep the relative order of
// their lines.
func GroupBySupplier(lines []DisplayLine) []SupplierGroup {
	var groups []SupplierGroup
	index := make(map[string]int)

	for _, l := range lines {
		name := l.SupplierName
		if name == "" {
			name = UnknownSupplierLabel
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, SupplierGroup{SupplierName: name, SupplierImageURL: l.SupplierImageURL})
		}
		groups[i].Lines = append(groups[i].Lines, l)
	}
	return groups
}
