package roster

import (
	"strings"

	"ipo-wizard/src/models"
)

// -----------------------------------------------------------------------------

// Filter searches an externally owned roster and maintains the selection of
// clients included in the application. Only KYC-verified clients can ever be
// selected; every mutator enforces it.
type Filter struct {
	roster    []models.MClient
	byID      map[string]int
	term      string
	selection []string
	selected  map[string]struct{}
}

// -----------------------------------------------------------------------------

func NewFilter(roster []models.MClient) *Filter {
	f := &Filter{
		roster:   append([]models.MClient(nil), roster...),
		byID:     make(map[string]int, len(roster)),
		selected: make(map[string]struct{}),
	}
	for i, c := range f.roster {
		f.byID[c.ID] = i
	}
	return f
}

// -----------------------------------------------------------------------------

// Search sets the current search term and returns the matching subset.
// Matching is a case-insensitive substring test over name, email, phone and PAN.
func (f *Filter) Search(term string) []models.MClient {
	f.term = term
	return f.Filtered()
}

// -----------------------------------------------------------------------------

func (f *Filter) Term() string {
	return f.term
}

// -----------------------------------------------------------------------------

// Filtered returns the roster members matching the current term, in roster order.
func (f *Filter) Filtered() []models.MClient {
	needle := strings.ToLower(strings.TrimSpace(f.term))
	if needle == "" {
		return append([]models.MClient(nil), f.roster...)
	}

	var out []models.MClient
	for _, c := range f.roster {
		if matches(c, needle) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c models.MClient, needle string) bool {
	for _, field := range []string{c.Name, c.Email, c.Phone, c.PANNumber} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Selection
// -----------------------------------------------------------------------------

// SelectAll replaces the selection with the verified members of the filtered subset.
func (f *Filter) SelectAll() int {
	f.Clear()
	for _, c := range f.Filtered() {
		if c.IsVerified() {
			f.add(c.ID)
		}
	}
	return len(f.selection)
}

// -----------------------------------------------------------------------------

// Toggle adds or removes a verified client. Unknown or unverified ids are a
// no-op and report false.
func (f *Filter) Toggle(clientID string) bool {
	c, ok := f.Client(clientID)
	if !ok || !c.IsVerified() {
		return false
	}
	if _, on := f.selected[clientID]; on {
		f.remove(clientID)
	} else {
		f.add(clientID)
	}
	return true
}

// -----------------------------------------------------------------------------

// Select adds a verified client if not already selected.
func (f *Filter) Select(clientID string) bool {
	c, ok := f.Client(clientID)
	if !ok || !c.IsVerified() {
		return false
	}
	if _, on := f.selected[clientID]; !on {
		f.add(clientID)
	}
	return true
}

// -----------------------------------------------------------------------------

func (f *Filter) Clear() {
	f.selection = nil
	f.selected = make(map[string]struct{})
}

// -----------------------------------------------------------------------------

func (f *Filter) IsSelected(clientID string) bool {
	_, ok := f.selected[clientID]
	return ok
}

// Selection returns the selected ids in selection order.
func (f *Filter) Selection() []string {
	return append([]string(nil), f.selection...)
}

// SelectedClients returns the selected clients in selection order.
func (f *Filter) SelectedClients() []models.MClient {
	out := make([]models.MClient, 0, len(f.selection))
	for _, id := range f.selection {
		out = append(out, f.roster[f.byID[id]])
	}
	return out
}

func (f *Filter) Size() int {
	return len(f.selection)
}

// -----------------------------------------------------------------------------

func (f *Filter) Client(clientID string) (models.MClient, bool) {
	i, ok := f.byID[clientID]
	if !ok {
		return models.MClient{}, false
	}
	return f.roster[i], true
}

// Roster returns the full roster with selection flags for display.
func (f *Filter) Roster() []models.MRosterEntry {
	filtered := f.Filtered()
	out := make([]models.MRosterEntry, 0, len(filtered))
	for _, c := range filtered {
		out = append(out, models.MRosterEntry{
			Client:     c,
			Selectable: c.IsVerified(),
			Selected:   f.IsSelected(c.ID),
		})
	}
	return out
}

// -----------------------------------------------------------------------------

func (f *Filter) add(id string) {
	f.selected[id] = struct{}{}
	f.selection = append(f.selection, id)
}

func (f *Filter) remove(id string) {
	delete(f.selected, id)
	for i, s := range f.selection {
		if s == id {
			f.selection = append(f.selection[:i], f.selection[i+1:]...)
			return
		}
	}
}
