package analytics_test

import (
	"time"

	"github.com/Boakye-20/uk-ai-policy-tracker/backend/internal/models"
)

func date(y int, m time.Month, d int) models.Date {
	return models.NewDate(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func policy(title, dept, typ string, published models.Date) models.Policy {
	return models.Policy{
		Title:         title,
		Department:    dept,
		PolicyType:    typ,
		PublishedDate: published,
		YearMonth:     published.Format(models.PeriodLayout),
	}
}

func samplePolicies() []models.Policy {
	return []models.Policy{
		{
			Title: "AI Regulation White Paper", Department: "DSIT", PolicyType: models.PolicyTypeRegulation,
			SectorFocus: "Cross-sector", AIApplication: "General AI", PriorityCategory: models.PriorityCritical,
			Stage: "Consultation", RelevanceScore: 9.5, DaysSincePublished: 20, RequiresAction: "Yes",
			PublishedDate: date(2024, 3, 1), YearMonth: "2024-03",
			KeyTopics: "AI Safety, Regulation, Innovation", Summary: "Sets out a pro-innovation approach.",
		},
		{
			Title: "NHS AI Lab Guidance", Department: "DHSC", PolicyType: models.PolicyTypeImplementation,
			SectorFocus: "Healthcare", AIApplication: "Diagnostics", PriorityCategory: models.PriorityHigh,
			Stage: "Published", RelevanceScore: 7.2, DaysSincePublished: 75,
			PublishedDate: date(2024, 1, 15), YearMonth: "2024-01",
			KeyTopics: "Healthcare AI, AI Safety, Data Protection", Description: "Guidance for NHS trusts.",
		},
		{
			Title: "National AI Strategy Update", Department: "DSIT", PolicyType: models.PolicyTypeStrategy,
			SectorFocus: "Cross-sector", AIApplication: "General AI", PriorityCategory: "3-Medium",
			RelevanceScore: 8.1, DaysSincePublished: 200, RequiresAction: "no",
			PublishedDate: date(2023, 9, 10), YearMonth: "2023-09",
			KeyTopics: "Innovation, Skills",
		},
		{
			Title: "Algorithmic Transparency Standard", Department: "Cabinet Office", PolicyType: models.PolicyTypeRegulation,
			SectorFocus: "Public Sector", AIApplication: "Decision Making", PriorityCategory: models.PriorityHigh,
			RelevanceScore: 6.4, DaysSincePublished: 400,
			PublishedDate: date(2023, 1, 20), YearMonth: "2023-01",
			KeyTopics: "Transparency, Regulation, AI Safety",
		},
		{
			Title: "Online Safety Research", Department: "DCMS", PolicyType: models.PolicyTypeResearch,
			SectorFocus: "", AIApplication: "Content Moderation", PriorityCategory: "4-Low",
			RelevanceScore: 4.0, DaysSincePublished: 120,
			PublishedDate: date(2024, 1, 2), YearMonth: "2024-01",
		},
	}
}
