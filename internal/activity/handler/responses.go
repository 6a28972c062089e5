package handler

import (
	"bytes"
	"encoding/json"

	"activityboard/internal/activity/models"
)

// ActivityResponse is one entry of GET /activities.
type ActivityResponse struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// ActivitiesResponse is the GET /activities body: a JSON object keyed by
// activity name whose keys keep registry order.
type ActivitiesResponse struct {
	names   []string
	entries map[string]ActivityResponse
}

// FromActivities converts registry activities into the response body.
func FromActivities(activities []*models.Activity) *ActivitiesResponse {
	resp := &ActivitiesResponse{
		names:   make([]string, 0, len(activities)),
		entries: make(map[string]ActivityResponse, len(activities)),
	}
	for _, a := range activities {
		participants := a.Participants
		if participants == nil {
			participants = []string{}
		}
		resp.names = append(resp.names, a.Name)
		resp.entries[a.Name] = ActivityResponse{
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			Participants:    participants,
		}
	}
	return resp
}

// MarshalJSON writes the object with keys in registry order.
func (r *ActivitiesResponse) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(r.entries[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
