// Package goals extracts financial goal parameters from free text.
package goals

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/aristath/goaleval/internal/domain"
)

// Pattern lists are tried in order; the first match wins per field.
var (
	startingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`starting with \$?([\d,]+)k?`),
		regexp.MustCompile(`i have \$?([\d,]+)k?`),
		regexp.MustCompile(`current(?:ly)? \$?([\d,]+)k?`),
		regexp.MustCompile(`\$?([\d,]+)k? (?:to start|currently)`),
	}

	targetPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:save|reach|achieve|need) \$?([\d,]+)k?`),
		regexp.MustCompile(`goal (?:of )?\$?([\d,]+)k?`),
		regexp.MustCompile(`\$?([\d,]+)k? (?:goal|target)`),
	}

	timelinePatterns = []*regexp.Regexp{
		regexp.MustCompile(`in (\d+) years?`),
		regexp.MustCompile(`over (\d+) years?`),
		regexp.MustCompile(`(\d+)[-\s]year`),
	}

	contributionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:add|contribute|invest|save) \$?([\d,]+)(?:/month| monthly| per month)`),
		regexp.MustCompile(`\$?([\d,]+)(?:/month| monthly| per month)`),
	}
)

// Parse extracts goal parameters from text. It never fails: fields that no
// pattern recognises stay zero, and callers fill them in with Overrides.
func Parse(text string) domain.GoalParameters {
	lower := strings.ToLower(text)

	params := domain.GoalParameters{GoalDescription: text}

	if v, ok := firstAmount(lower, startingPatterns, true); ok {
		params.StartingWealth = v
	}
	if v, ok := firstAmount(lower, targetPatterns, true); ok {
		params.TargetWealth = v
	}
	if v, ok := firstAmount(lower, timelinePatterns, false); ok {
		params.TimelineYears = clampYears(v)
	}
	if v, ok := firstAmount(lower, contributionPatterns, false); ok {
		params.MonthlyContribution = v
	}

	return params
}

// firstAmount returns the value captured by the first matching pattern.
// With thousands set, a "k" anywhere in the matched text multiplies by 1000.
func firstAmount(text string, patterns []*regexp.Regexp, thousands bool) (float64, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			// "$," and similar captures carry no digits
			continue
		}
		if thousands && strings.Contains(m[0], "k") {
			value *= 1000
		}
		return value, true
	}
	return 0, false
}

// Overrides holds explicitly supplied goal values. Any non-nil field replaces
// the parsed value. Negative amounts become 0 and the timeline is clamped to
// [0, domain.MaxTimelineYears].
type Overrides struct {
	StartingWealth      *float64 `json:"starting_wealth,omitempty"`
	TargetWealth        *float64 `json:"target_wealth,omitempty"`
	TimelineYears       *int     `json:"timeline_years,omitempty"`
	MonthlyContribution *float64 `json:"monthly_contribution,omitempty"`
}

// Apply returns params with the override values substituted
func (o Overrides) Apply(params domain.GoalParameters) domain.GoalParameters {
	if o.StartingWealth != nil {
		params.StartingWealth = nonNegative(*o.StartingWealth)
	}
	if o.TargetWealth != nil {
		params.TargetWealth = nonNegative(*o.TargetWealth)
	}
	if o.TimelineYears != nil {
		params.TimelineYears = clampYears(float64(*o.TimelineYears))
	}
	if o.MonthlyContribution != nil {
		params.MonthlyContribution = nonNegative(*o.MonthlyContribution)
	}
	return params
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clampYears(v float64) int {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= domain.MaxTimelineYears:
		return domain.MaxTimelineYears
	}
	return int(v)
}

// Resolve parses text and applies the overrides in one step
func Resolve(text string, o Overrides) domain.GoalParameters {
	return o.Apply(Parse(text))
}
