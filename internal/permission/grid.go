package permission

// Cell is one resource/action pair of a Grid row.
type Cell struct {
	Name    string
	Action  string
	Granted bool
	Source  Source
}

// Row is the evaluation of every action on one resource.
type Row struct {
	Resource string
	Cells    []Cell
}

// Grid evaluates every known resource/action pair against set, in display order.
// Pairs without a record are denied with SourceNone.
func Grid(set *Set) []Row {
	rows := make([]Row, 0, len(Resources))

	for _, resource := range Resources {
		row := Row{Resource: resource, Cells: make([]Cell, 0, len(Actions))}

		for _, action := range Actions {
			name := Name(resource, action)
			cell := Cell{Name: name, Action: action}

			if r, ok := set.Lookup(name); ok {
				cell.Granted = r.HasPermission
				cell.Source = r.Source
			}

			row.Cells = append(row.Cells, cell)
		}

		rows = append(rows, row)
	}

	return rows
}

// Granted counts the granted records of set.
func Granted(set *Set) int {
	n := 0

	for _, r := range set.Records() {
		if r.HasPermission {
			n++
		}
	}

	return n
}
