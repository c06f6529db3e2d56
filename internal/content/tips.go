// Package content serves the farmer home page: a daily tip and upcoming
// agriculture events.
package content

import "time"

var dailyTips = []string{
	"Check soil moisture levels daily for optimal crop health and water conservation.",
	"Rotate crops seasonally to prevent soil depletion and reduce pest buildup.",
	"Use companion planting to naturally deter pests and boost crop yields.",
	"Apply mulch to retain soil moisture and suppress weeds effectively.",
	"Monitor weather forecasts to plan irrigation and protect crops from storms.",
	"Test soil pH regularly to ensure optimal nutrient availability for plants.",
	"Prune fruit trees in late winter to encourage healthy spring growth.",
	"Use organic compost to enrich soil and promote sustainable farming.",
	"Inspect crops weekly for early signs of disease or pest infestation.",
	"Harvest rainwater to reduce dependency on external water sources.",
}

// DailyTip picks the tip for the given day. Everyone sees the same tip on
// the same day.
func DailyTip(now time.Time) string {
	return dailyTips[now.YearDay()%len(dailyTips)]
}
