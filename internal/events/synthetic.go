package events

import (
	"fmt"
	"time"
)

// Synthetic returns deterministic example events for the queried city, used
// when no live event source is configured or reachable.
func Synthetic(q Query) []Event {
	now := time.Now().UTC()

	examples := []Event{
		{
			ID:          "example-1",
			Title:       fmt.Sprintf("%s City Council Meeting", q.City),
			Description: "Monthly city council meeting to discuss local issues and upcoming projects.",
			Date:        now.AddDate(0, 0, 3).Format(time.RFC3339),
			Location:    "City Hall",
			Category:    "Government",
		},
		{
			ID:          "example-2",
			Title:       fmt.Sprintf("%s Farmers Market", q.City),
			Description: "Weekly farmers market featuring local produce, crafts, and food vendors.",
			Date:        now.AddDate(0, 0, 6).Format(time.RFC3339),
			Location:    "Downtown Plaza",
			Category:    "Community",
		},
		{
			ID:          "example-3",
			Title:       fmt.Sprintf("%s Public Library Story Time", q.City),
			Description: "Children's story time session at the public library. All ages welcome.",
			Date:        now.AddDate(0, 0, 8).Format(time.RFC3339),
			Location:    fmt.Sprintf("%s Public Library", q.City),
			Category:    "Education",
		},
		{
			ID:          "example-4",
			Title:       fmt.Sprintf("%s Community Cleanup Day", q.City),
			Description: "Join neighbors for a community cleanup day. Supplies provided.",
			Date:        now.AddDate(0, 0, 12).Format(time.RFC3339),
			Location:    "Various Locations",
			Category:    "Community Service",
		},
		{
			ID:          "example-5",
			Title:       fmt.Sprintf("%s Art Walk", q.City),
			Description: "Monthly art walk featuring local artists, galleries, and live music.",
			Date:        now.AddDate(0, 0, 15).Format(time.RFC3339),
			Location:    "Arts District",
			Category:    "Arts & Culture",
		},
	}

	for i := range examples {
		examples[i].City = q.City
		examples[i].State = q.State
		examples[i].URL = "#"
		examples[i].Source = "Example"
	}

	if q.Limit > 0 && q.Limit < len(examples) {
		examples = examples[:q.Limit]
	}
	return examples
}
