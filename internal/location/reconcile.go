package location

import "github.com/GoBizAdmin/GoBizAdmin/internal/domain"

// Decision is the outcome of reconciling a selection against a fetched location list.
type Decision struct {
	// Current is the selection after reconciliation, nil when nothing is selected.
	Current *domain.Location
	// Persist is set when Current must be written to the selection store.
	Persist bool
	// Drop is set when the previous selection is gone and its persisted copy must be removed.
	Drop bool
}

// Reconcile resolves current against fetched. The rules are applied in order:
//
//  1. current is in fetched: it is replaced by the fetched copy.
//  2. current is not in fetched: it is dropped and the first fetched location, if any, is selected.
//  3. nothing is selected and fetched is not empty: the first fetched location is selected.
//  4. nothing is selected and fetched is empty: nothing is selected.
//
// The fallback is the first location in the order the remote returned them.
func Reconcile(current *domain.Location, fetched []domain.Location) Decision {
	if current != nil {
		if i := domain.IndexOf(fetched, current.ID); i >= 0 {
			loc := fetched[i]
			return Decision{Current: &loc, Persist: true}
		}

		d := Decision{Drop: true}

		if len(fetched) > 0 {
			loc := fetched[0]
			d.Current = &loc
			d.Persist = true
		}

		return d
	}

	if len(fetched) == 0 {
		return Decision{}
	}

	loc := fetched[0]

	return Decision{Current: &loc, Persist: true}
}
