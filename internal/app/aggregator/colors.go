package aggregator

import "strings"

const colorGray = "#999999"

// Tier names ordered so that longer names match before their suffixes
// ("grandmaster" before "master").
var rankColors = []struct {
	name  string
	color string
}{
	{"legendary grandmaster", "#AA0000"},
	{"international grandmaster", "#F44336"},
	{"grandmaster", "#F44336"},
	{"international master", "#FF9800"},
	{"candidate master", "#E91E63"},
	{"master", "#FF9800"},
	{"expert", "#0202BA"},
	{"specialist", "#2196F3"},
	{"pupil", "#43A047"},
	{"newbie", colorGray},
}

// RankColor maps a tier label such as "candidate master" to its color.
func RankColor(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	if l == "" {
		return colorGray
	}
	for _, rc := range rankColors {
		if strings.Contains(l, rc.name) {
			return rc.color
		}
	}
	return colorGray
}

var ratingTiers = []struct {
	below int
	label string
}{
	{1200, "newbie"},
	{1400, "pupil"},
	{1600, "specialist"},
	{1900, "expert"},
	{2100, "candidate master"},
	{2300, "master"},
	{2400, "international master"},
	{2600, "grandmaster"},
	{3000, "international grandmaster"},
}

// RatingTier names the tier a rating falls into.
func RatingTier(rating int) string {
	for _, t := range ratingTiers {
		if rating < t.below {
			return t.label
		}
	}
	return "legendary grandmaster"
}

func RatingColor(rating int) string {
	return RankColor(RatingTier(rating))
}

// ContestRankColor bands a contest placement; 0 means unknown.
func ContestRankColor(place int) string {
	switch {
	case place <= 0:
		return colorGray
	case place <= 10:
		return "#AA0000"
	case place <= 100:
		return "#F44336"
	case place <= 500:
		return "#FF9800"
	case place <= 1000:
		return "#E91E63"
	case place <= 3000:
		return "#0202BA"
	case place <= 6000:
		return "#2196F3"
	case place <= 10000:
		return "#43A047"
	default:
		return colorGray
	}
}

// DifficultyColor bands a problem rating; unrated problems are gray.
func DifficultyColor(rating int) string {
	switch {
	case rating <= 0:
		return colorGray
	case rating <= 1200:
		return "#43A047"
	case rating <= 1400:
		return "#7CB342"
	case rating <= 1600:
		return "#C0CA33"
	case rating <= 1900:
		return "#0202BA"
	case rating <= 2100:
		return "#FB8C00"
	case rating <= 2400:
		return "#F4511E"
	default:
		return "#C62828"
	}
}
