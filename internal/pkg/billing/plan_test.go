package billing

import "testing"

func TestPlanForStatus(t *testing.T) {
	cases := []struct {
		status string
		want   string
	}{
		{"active", PlanPremium},
		{"on_trial", PlanPremium},
		{"past_due", PlanPremium},
		{" Active ", PlanPremium},
		{"cancelled", PlanFree},
		{"expired", PlanFree},
		{"unpaid", PlanFree},
		{"paused", PlanFree},
		{"none", PlanFree},
		{"", PlanFree},
	}
	for _, tc := range cases {
		if got := PlanForStatus(tc.status); got != tc.want {
			t.Errorf("PlanForStatus(%q) = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestBookmarkLimit(t *testing.T) {
	if got := BookmarkLimit(PlanPremium); got != -1 {
		t.Errorf("premium limit = %d, want unlimited", got)
	}
	if got := BookmarkLimit(PlanFree); got != FreeBookmarkLimit {
		t.Errorf("free limit = %d, want %d", got, FreeBookmarkLimit)
	}
	if got := BookmarkLimit("unknown"); got != FreeBookmarkLimit {
		t.Errorf("unknown plan limit = %d, want %d", got, FreeBookmarkLimit)
	}
}
