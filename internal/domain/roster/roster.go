// Package roster manages the pool of known participants and the subset
// selected for the next tournament.
package roster

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/okian/shotboard/internal/domain/model"
)

// MaxNameLength bounds participant names, counted in runes.
const MaxNameLength = 64

// defaultNamespace seeds name-based ids for the built-in roster so the same
// name always maps to the same id across runs.
var defaultNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("shotboard:roster"))

var validate = validator.New(validator.WithRequiredStructEnabled())

// foldKey maps a name onto its case-folded comparison key. A Caser keeps
// state, so one is made per call.
func foldKey(s string) string { return cases.Fold().String(s) }

// Option applies a configuration option to the Roster.
type Option func(*Roster)

// WithIDGenerator overrides how new participant ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(r *Roster) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// Roster is the ordered participant pool plus the current selection. It is
// not safe for concurrent use.
type Roster struct {
	participants []model.Participant
	selected     []string
	newID        func() string
}

// New returns a roster holding ps in order. Entries that are invalid or
// repeat an earlier id are skipped.
func New(ps []model.Participant, opts ...Option) *Roster {
	r := &Roster{newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	r.Replace(ps)
	return r
}

// DefaultParticipants builds participants for the given names with stable
// name-derived ids. Blank and case-insensitive duplicate names are skipped.
func DefaultParticipants(names []string) []model.Participant {
	out := make([]model.Participant, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		key := foldKey(n)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, model.Participant{
			ID:   uuid.NewSHA1(defaultNamespace, []byte(key)).String(),
			Name: n,
		})
	}
	return out
}

// Replace swaps the participant pool. Selected ids that no longer exist are
// dropped from the selection.
func (r *Roster) Replace(ps []model.Participant) {
	next := make([]model.Participant, 0, len(ps))
	seen := make(map[string]struct{}, len(ps))
	for _, p := range ps {
		if validate.Struct(p) != nil {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		next = append(next, p)
	}
	r.participants = next
	r.selected = slices.DeleteFunc(r.selected, func(id string) bool {
		_, ok := seen[id]
		return !ok
	})
}

// All returns every participant in roster order.
func (r *Roster) All() []model.Participant {
	return model.CloneParticipants(r.participants)
}

// Len returns the number of participants.
func (r *Roster) Len() int { return len(r.participants) }

// Find looks a participant up by id.
func (r *Roster) Find(id string) (model.Participant, bool) {
	i := r.index(id)
	if i < 0 {
		return model.Participant{}, false
	}
	return r.participants[i], true
}

func (r *Roster) index(id string) int {
	return slices.IndexFunc(r.participants, func(p model.Participant) bool { return p.ID == id })
}

// Add creates a participant. The name is trimmed and must be unique among
// existing names ignoring case.
func (r *Roster) Add(name string) (model.Participant, error) {
	name = strings.TrimSpace(name)
	if validate.Var(name, "required") != nil {
		return model.Participant{}, ErrEmptyName
	}
	if validate.Var(name, fmt.Sprintf("max=%d", MaxNameLength)) != nil {
		return model.Participant{}, fmt.Errorf("%q: %w", name, ErrNameTooLong)
	}
	key := foldKey(name)
	for _, p := range r.participants {
		if foldKey(p.Name) == key {
			return model.Participant{}, fmt.Errorf("%q: %w", name, ErrDuplicateName)
		}
	}
	p := model.Participant{ID: r.newID(), Name: name}
	r.participants = append(r.participants, p)
	return p, nil
}

// Remove deletes a participant and drops it from the selection.
func (r *Roster) Remove(id string) (model.Participant, error) {
	i := r.index(id)
	if i < 0 {
		return model.Participant{}, fmt.Errorf("id %q: %w", id, ErrNotFound)
	}
	p := r.participants[i]
	r.participants = slices.Delete(r.participants, i, i+1)
	r.deselect(id)
	return p, nil
}

// Filter returns participants whose name contains query, ignoring case. An
// empty query matches everyone.
func (r *Roster) Filter(query string) []model.Participant {
	q := foldKey(strings.TrimSpace(query))
	out := make([]model.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		if strings.Contains(foldKey(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}

// Selected returns the selected participants in the order they were picked.
func (r *Roster) Selected() []model.Participant {
	out := make([]model.Participant, 0, len(r.selected))
	for _, id := range r.selected {
		if p, ok := r.Find(id); ok {
			out = append(out, p)
		}
	}
	return out
}

// IsSelected reports whether id is in the selection.
func (r *Roster) IsSelected(id string) bool {
	return slices.Contains(r.selected, id)
}

// Toggle flips the selection of id and reports whether it is now selected.
func (r *Roster) Toggle(id string) (bool, error) {
	if r.index(id) < 0 {
		return false, fmt.Errorf("id %q: %w", id, ErrNotFound)
	}
	if r.IsSelected(id) {
		r.deselect(id)
		return false, nil
	}
	r.selected = append(r.selected, id)
	return true, nil
}

// Select replaces the selection with ids. Unknown ids fail the whole call.
func (r *Roster) Select(ids []string) error {
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if r.index(id) < 0 {
			return fmt.Errorf("id %q: %w", id, ErrNotFound)
		}
		if !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	r.selected = next
	return nil
}

// ToggleAll works on the participants matching query. When all of them are
// already selected the selection is cleared; otherwise the selection becomes
// exactly the matching participants. It reports whether anything is selected
// afterwards.
func (r *Roster) ToggleAll(query string) bool {
	visible := r.Filter(query)
	if r.AllSelected(visible) {
		r.selected = nil
		return false
	}
	r.selected = model.ParticipantIDs(visible)
	return len(r.selected) > 0
}

// AllSelected reports whether ps is non-empty and every entry is selected.
func (r *Roster) AllSelected(ps []model.Participant) bool {
	if len(ps) == 0 {
		return false
	}
	for _, p := range ps {
		if !r.IsSelected(p.ID) {
			return false
		}
	}
	return true
}

// ClearSelection deselects everyone.
func (r *Roster) ClearSelection() { r.selected = nil }

func (r *Roster) deselect(id string) {
	r.selected = slices.DeleteFunc(r.selected, func(s string) bool { return s == id })
}
