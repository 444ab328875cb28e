package registration

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Plan is a subscription offering from the remote catalogue.
// Plans are immutable once fetched.
type Plan struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	PeriodLabel string          `json:"period_label"`
	Features    []string        `json:"features"`
}

// IsFree reports whether the plan costs nothing. Free plans skip invoice creation.
func (p Plan) IsFree() bool {
	return p.Price.IsZero()
}

// Clone returns a copy that shares no slices with p.
func (p Plan) Clone() Plan {
	out := p
	out.Features = append([]string(nil), p.Features...)
	return out
}

// Duration types used by the plan catalogue
const (
	DurationMonthly   = "monthly"
	DurationQuarterly = "quarterly"
	DurationYearly    = "yearly"
)

// PeriodLabel renders a billing period for display next to a price.
// duration is the catalogue's raw value; a numeric zero means a free period.
func PeriodLabel(duration string, durationType string) string {
	duration = strings.TrimSpace(duration)
	if d, err := decimal.NewFromString(duration); err == nil && d.IsZero() {
		return "مجاناً"
	}
	switch durationType {
	case DurationMonthly:
		return "/شهرياً"
	case DurationQuarterly:
		return "/كل 3 أشهر"
	case DurationYearly:
		return "/سنوياً"
	default:
		return fmt.Sprintf("/كل %s %s", duration, durationType)
	}
}

// FindPlan returns the plan with the given id.
func FindPlan(plans []Plan, id string) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}
