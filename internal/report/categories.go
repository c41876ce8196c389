package report

import (
	"fmt"
	"strings"
)

// Category is a broad report reason together with its sub-menu.
type Category struct {
	// Label is the name used in summaries and moderator reports.
	Label string
	// MenuText is the wording shown in the broad-category menu.
	MenuText string
	// Question introduces the sub-menu. Empty when there is no sub-menu.
	Question string
	// Options are the specific categories, numbered from 1.
	Options []string
}

// Broad category codes.
const (
	BroadMisinformation = 1
	BroadDangerous      = 2
	BroadHarassment     = 3
	BroadMoreOptions    = 4
	BroadDoNotWantToSee = 5
)

// Specific category code recorded when the broad category has no sub-menu.
const SpecificNotApplicable = 0

var categories = map[int]Category{
	BroadMisinformation: {
		Label:    "Misinformation",
		MenuText: "Misinformation",
		Question: "What kind of misinformation is this? (Choose from below).",
		Options: []string{
			"Elections",
			"Covid-19",
			"Other Health or Medical",
			"Climate Change",
			"Gun Violence",
			"Other",
		},
	},
	BroadDangerous: {
		Label:    "Dangerous or Illegal Content",
		MenuText: "Dangerous or Illegal Content",
		Question: "What kind of dangerous or illegal content is this? (Choose from below).",
		Options: []string{
			"Expresses intentions of self-harm or suicide",
			"Expresses intentions for harming others",
			"Dangerous or Violent Organizations",
			"Child Sexual Abuse Materials",
			"Human Trafficking",
			"Sale of Illegal Goods",
		},
	},
	BroadHarassment: {
		Label:    "Harassment or Abuse",
		MenuText: "Harassment or Abuse",
		Question: "What kind of harassment or abuse is this? (Choose from below).",
		Options: []string{
			"Hate Speech or Symbols",
			"Bullying",
			"Sexual Harassment",
			"Stalking",
		},
	},
	BroadMoreOptions: {
		Label:    "More Options",
		MenuText: "More Options",
		Question: "Here are more options: (Choose from below).",
		Options: []string{
			"Spam",
			"Copyright Infringement",
			"Impersonation",
			"Other",
		},
	},
	BroadDoNotWantToSee: {
		Label:    "I do not want to see this content",
		MenuText: "I don't want to see this content",
	},
}

// Labels of the misinformation sub-categories that get the high-risk markers.
const (
	LabelElections     = "Elections"
	LabelCovid19       = "Covid-19"
	LabelOtherHealth   = "Other Health or Medical"
	labelNotApplicable = "Not applicable"
)

var highRisk = map[string]bool{
	LabelElections:   true,
	LabelCovid19:     true,
	LabelOtherHealth: true,
}

// IsHighRisk reports whether a specific category label is in the high-risk set.
func IsHighRisk(specific string) bool { return highRisk[specific] }

// BroadLabel returns the label of a broad category code, or "" when unknown.
func BroadLabel(code int) string {
	return categories[code].Label
}

// SpecificLabel returns the label of a specific category within a broad one.
func SpecificLabel(broad, specific int) string {
	if specific == SpecificNotApplicable {
		if broad == BroadDoNotWantToSee {
			return labelNotApplicable
		}
		return ""
	}
	opts := categories[broad].Options
	if specific < 1 || specific > len(opts) {
		return ""
	}
	return opts[specific-1]
}

func menu(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("Enter `%d` for %s", i+1, item)
	}
	return strings.Join(lines, "\n")
}

func broadMenu() string {
	items := make([]string, 0, len(categories))
	for code := BroadMisinformation; code <= BroadDoNotWantToSee; code++ {
		items = append(items, categories[code].MenuText)
	}
	return menu(items)
}
