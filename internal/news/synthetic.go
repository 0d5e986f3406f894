package news

import (
	"fmt"
	"time"
)

// Synthetic returns deterministic placeholder articles for the queried city.
func Synthetic(q Query) []Article {
	now := time.Now().UTC()

	articles := []Article{
		{
			Title:       fmt.Sprintf("%s City Council Approves New Community Center Funding", q.City),
			Description: fmt.Sprintf("The %s City Council voted unanimously to approve $2.5 million in funding for a new community center in the downtown area.", q.City),
			PublishedAt: now.Add(-2 * time.Hour).Format(time.RFC3339),
			Source:      fmt.Sprintf("%s Daily News", q.City),
		},
		{
			Title:       "Local Library Hosts Free Technology Workshops",
			Description: fmt.Sprintf("The %s Public Library is offering free technology workshops for seniors every Tuesday and Thursday this month.", q.City),
			PublishedAt: now.Add(-5 * time.Hour).Format(time.RFC3339),
			Source:      "Community Bulletin",
		},
		{
			Title:       "New Bike Lanes Installed on Main Street",
			Description: "The city has completed installation of protected bike lanes on Main Street, improving safety for cyclists and pedestrians.",
			PublishedAt: now.Add(-8 * time.Hour).Format(time.RFC3339),
			Source:      fmt.Sprintf("%s Transportation", q.City),
		},
		{
			Title:       "Farmers Market Returns This Saturday",
			Description: "The weekly farmers market returns to the downtown plaza this Saturday with over 30 local vendors offering fresh produce and handmade goods.",
			PublishedAt: now.Add(-12 * time.Hour).Format(time.RFC3339),
			Source:      fmt.Sprintf("%s Events", q.City),
		},
		{
			Title:       "City Announces New Recycling Program",
			Description: fmt.Sprintf("Starting next month, %s will expand its recycling program to include more materials and offer curbside pickup for all residents.", q.City),
			PublishedAt: now.Add(-24 * time.Hour).Format(time.RFC3339),
			Source:      fmt.Sprintf("%s Public Works", q.City),
		},
	}

	for i := range articles {
		articles[i].URL = "#"
	}

	if q.Limit > 0 && q.Limit < len(articles) {
		articles = articles[:q.Limit]
	}
	return articles
}
