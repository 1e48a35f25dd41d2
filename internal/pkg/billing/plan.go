package billing

import "strings"

const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// FreeBookmarkLimit caps how many bookmarks a free-plan user may import.
// Premium has no cap.
const FreeBookmarkLimit = 500

// PlanForStatus maps a provider subscription status to the internal plan.
// The provider vocabulary is open-ended; anything not explicitly entitling
// falls back to free.
func PlanForStatus(status string) string {
	if isEntitlingStatus(status) {
		return PlanPremium
	}
	return PlanFree
}

// BookmarkLimit returns the bookmark cap for a plan, or -1 for unlimited.
func BookmarkLimit(plan string) int {
	if strings.ToLower(strings.TrimSpace(plan)) == PlanPremium {
		return -1
	}
	return FreeBookmarkLimit
}

func isEntitlingStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "on_trial", "past_due":
		return true
	default:
		return false
	}
}
