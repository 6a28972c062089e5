package models

import "slices"

// Activity is an extracurricular offering students can sign up for.
//
// Invariants:
//   - Name is the registry key and never changes
//   - Participants holds no duplicate email; order is signup order
//   - MaxParticipants is informational and is not enforced on signup
type Activity struct {
	Name            string   `json:"name"             yaml:"name"`
	Description     string   `json:"description"      yaml:"description"`
	Schedule        string   `json:"schedule"         yaml:"schedule"`
	MaxParticipants int      `json:"max_participants" yaml:"max_participants"`
	Participants    []string `json:"participants"     yaml:"participants"`
}

// HasParticipant reports whether email is on the participant list.
func (a *Activity) HasParticipant(email string) bool {
	return slices.Contains(a.Participants, email)
}

// AddParticipant appends email. It returns false if email was already present.
func (a *Activity) AddParticipant(email string) bool {
	if a.HasParticipant(email) {
		return false
	}
	a.Participants = append(a.Participants, email)
	return true
}

// RemoveParticipant deletes email. It returns false if email was not present.
func (a *Activity) RemoveParticipant(email string) bool {
	idx := slices.Index(a.Participants, email)
	if idx < 0 {
		return false
	}
	a.Participants = slices.Delete(a.Participants, idx, idx+1)
	return true
}

// Clone returns a deep copy so callers cannot mutate store state.
func (a *Activity) Clone() *Activity {
	c := *a
	c.Participants = append([]string{}, a.Participants...)
	return &c
}
