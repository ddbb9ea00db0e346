package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompletedGame is the frozen result of a finished game, used for history and leaderboards
type CompletedGame struct {
	ID               uuid.UUID       `json:"id"`
	Identity         string          `json:"uid"`
	EndDate          time.Time       `json:"endDate"`
	StartingBalance  decimal.Decimal `json:"startingBalance"`
	EndingBalance    decimal.Decimal `json:"endingBalance"`
	GainLoss         decimal.Decimal `json:"gainLoss"`
	PercentageChange decimal.Decimal `json:"percentageChange"`
	GameMode         GameMode        `json:"gameMode"`
	DurationDays     int             `json:"duration"`
	DisplayName      *string         `json:"userName"`
}

// FormatTimeRemaining renders the time left until end as shown to players
func FormatTimeRemaining(end, now time.Time) string {
	diff := end.Sub(now)
	if diff <= 0 {
		return "Game Over"
	}

	days := int(diff / (24 * time.Hour))
	weeks := days / 7
	remainingDays := days % 7

	if weeks > 0 {
		return fmt.Sprintf("%d %s and %d %s left", weeks, plural(weeks, "week"), remainingDays, plural(remainingDays, "day"))
	}
	return fmt.Sprintf("%d %s left", days, plural(days, "day"))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
