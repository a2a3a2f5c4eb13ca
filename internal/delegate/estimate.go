package delegate

import (
	"strings"
	"time"

	"autodev/internal/config"
	"autodev/internal/task"
)

// Tier classifies how long a task is expected to hold the delegate.
type Tier string

const (
	// TierShort covers small, mechanical changes.
	TierShort Tier = "short"
	// TierMedium covers ordinary feature work.
	TierMedium Tier = "medium"
	// TierLong covers sweeping or risky changes.
	TierLong Tier = "long"
)

const (
	// longDescriptionChars marks descriptions that imply substantial work.
	longDescriptionChars = 280
	// longTitleWords marks titles that enumerate several concerns.
	longTitleWords = 8
)

// complexityKeywords bump the estimate when they appear in the title or
// description. Each hit is worth two points.
var complexityKeywords = []string{
	"refactor",
	"migrate",
	"migration",
	"rewrite",
	"redesign",
	"test",
	"benchmark",
	"concurrency",
}

// TimeoutTiers maps estimate tiers to wall-clock budgets.
type TimeoutTiers struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// TiersFromConfig converts configured timeout seconds into tiers.
func TiersFromConfig(cfg config.TimeoutsConfig) TimeoutTiers {
	return TimeoutTiers{
		Short:  time.Duration(cfg.ShortSeconds) * time.Second,
		Medium: time.Duration(cfg.MediumSeconds) * time.Second,
		Long:   time.Duration(cfg.LongSeconds) * time.Second,
	}
}

// For returns the budget for one tier.
func (t TimeoutTiers) For(tier Tier) time.Duration {
	switch tier {
	case TierShort:
		return t.Short
	case TierLong:
		return t.Long
	default:
		return t.Medium
	}
}

// Estimate scores a task's apparent complexity into a timeout tier.
func Estimate(t task.Task) Tier {
	score := 0
	if len(t.Description) > longDescriptionChars {
		score++
	}
	if len(strings.Fields(t.Title)) > longTitleWords {
		score++
	}
	haystack := strings.ToLower(t.Title + " " + t.Description)
	for _, keyword := range complexityKeywords {
		if strings.Contains(haystack, keyword) {
			score += 2
			break
		}
	}
	switch {
	case score <= 0:
		return TierShort
	case score <= 2:
		return TierMedium
	default:
		return TierLong
	}
}
