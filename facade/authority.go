package facade

import "sort"

// Authority tracks which connected client currently holds simulation
// authority, elected as the lexicographic-minimum connected client id
// (spec.md §4.6 "authority election by lexicographic-minimum client id
// among connected clients"). Re-electing on every membership change is
// cheap and, crucially, produces the same winner on every peer without
// any coordination: each peer computes the same function of the same
// set.
type Authority struct {
	clients map[string]bool
	current string
	elected bool
}

// NewAuthority creates an authority tracker with no connected clients.
func NewAuthority() *Authority {
	return &Authority{clients: make(map[string]bool)}
}

// Join adds clientID to the connected set and re-elects.
func (a *Authority) Join(clientID string) {
	a.clients[clientID] = true
	a.reelect()
}

// Leave removes clientID from the connected set and re-elects.
func (a *Authority) Leave(clientID string) {
	delete(a.clients, clientID)
	a.reelect()
}

func (a *Authority) reelect() {
	if len(a.clients) == 0 {
		a.current = ""
		a.elected = false
		return
	}
	ids := make([]string, 0, len(a.clients))
	for id := range a.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	a.current = ids[0]
	a.elected = true
}

// Current returns the elected authority's client id, and whether one has
// been elected at all (false once every client has left).
func (a *Authority) Current() (string, bool) {
	return a.current, a.elected
}

// IsAuthority reports whether clientID currently holds authority.
func (a *Authority) IsAuthority(clientID string) bool {
	return a.elected && a.current == clientID
}
