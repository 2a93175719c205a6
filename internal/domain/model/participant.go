// Package model contains domain models passed between layers.
package model

// Participant is a roster entrant eligible for selection into a tournament.
type Participant struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// CloneParticipants returns an independent copy of ps. A nil slice stays nil.
func CloneParticipants(ps []Participant) []Participant {
	if ps == nil {
		return nil
	}
	out := make([]Participant, len(ps))
	copy(out, ps)
	return out
}

// ParticipantIDs lists the ids of ps in order.
func ParticipantIDs(ps []Participant) []string {
	ids := make([]string, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids
}
