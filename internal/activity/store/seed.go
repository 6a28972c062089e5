package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"activityboard/internal/activity/models"
)

// DefaultActivities returns the built-in Mergington High School board.
func DefaultActivities() []*models.Activity {
	return []*models.Activity{
		{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		{
			Name:            "Programming Class",
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
		},
		{
			Name:            "Gym Class",
			Description:     "Physical education and sports activities",
			Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
			MaxParticipants: 30,
			Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
		},
		{
			Name:            "Basketball Team",
			Description:     "Competitive basketball training and inter-school games",
			Schedule:        "Tuesdays and Thursdays, 4:00 PM - 6:00 PM",
			MaxParticipants: 15,
			Participants:    []string{"alex@mergington.edu"},
		},
		{
			Name:            "Swimming Club",
			Description:     "Swimming technique lessons and meets",
			Schedule:        "Wednesdays, 3:30 PM - 5:00 PM",
			MaxParticipants: 20,
			Participants:    []string{"mia@mergington.edu"},
		},
		{
			Name:            "Art Studio",
			Description:     "Express creativity through painting and drawing",
			Schedule:        "Mondays, 3:30 PM - 5:00 PM",
			MaxParticipants: 15,
			Participants:    []string{"lily@mergington.edu"},
		},
		{
			Name:            "Drama Club",
			Description:     "Acting, stagecraft and the spring production",
			Schedule:        "Fridays, 4:00 PM - 6:00 PM",
			MaxParticipants: 25,
			Participants:    []string{"noah@mergington.edu"},
		},
		{
			Name:            "Math Olympiad",
			Description:     "Advanced problem solving and competition preparation",
			Schedule:        "Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 10,
			Participants:    []string{"ava@mergington.edu"},
		},
		{
			Name:            "Debate Team",
			Description:     "Develop public speaking and argumentation skills",
			Schedule:        "Mondays, 4:00 PM - 5:30 PM",
			MaxParticipants: 16,
			Participants:    []string{"lucas@mergington.edu"},
		},
	}
}

// LoadSeedFile reads a YAML list of activities.
func LoadSeedFile(path string) ([]*models.Activity, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var activities []*models.Activity
	if err := yaml.Unmarshal(raw, &activities); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if err := ValidateSeed(activities); err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return activities, nil
}

// ValidateSeed checks names are present and unique, capacities are
// non-negative and no activity lists an email twice.
func ValidateSeed(activities []*models.Activity) error {
	names := make(map[string]struct{}, len(activities))
	for i, a := range activities {
		if a == nil || a.Name == "" {
			return fmt.Errorf("activity %d: name is required", i)
		}
		if _, dup := names[a.Name]; dup {
			return fmt.Errorf("activity %q: duplicate name", a.Name)
		}
		names[a.Name] = struct{}{}
		if a.MaxParticipants < 0 {
			return fmt.Errorf("activity %q: max_participants must be >= 0", a.Name)
		}
		seen := make(map[string]struct{}, len(a.Participants))
		for _, email := range a.Participants {
			if _, dup := seen[email]; dup {
				return fmt.Errorf("activity %q: participant %q listed twice", a.Name, email)
			}
			seen[email] = struct{}{}
		}
	}
	return nil
}
