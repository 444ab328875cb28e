package presenter

import (
	"errors"
	"sync"
	"time"

	"github.com/YoshitsuguKoike/regwiz/internal/application/usecase/wizard"
)

// BannerTTL is how long a banner stays visible unless dismissed earlier
const BannerTTL = 5 * time.Second

// BannerKind selects the banner styling
type BannerKind string

const (
	BannerError   BannerKind = "error"
	BannerSuccess BannerKind = "success"
	BannerInfo    BannerKind = "info"
)

// Banner is a dismissible message shown above the form
type Banner struct {
	Message string
	Kind    BannerKind
	ShownAt time.Time
	TTL     time.Duration

	mu        sync.Mutex
	dismissed bool
}

// NewBanner creates a banner shown at now
func NewBanner(kind BannerKind, message string, now time.Time) *Banner {
	return &Banner{Message: message, Kind: kind, ShownAt: now, TTL: BannerTTL}
}

// ErrorBanner builds the banner for a failed operation. Step errors show
// their user-facing message; anything else shows the error text.
func ErrorBanner(err error, now time.Time) *Banner {
	msg := err.Error()
	var se *wizard.StepError
	if errors.As(err, &se) && se.UserMessage() != "" {
		msg = se.UserMessage()
	}
	return NewBanner(BannerError, msg, now)
}

// Dismiss hides the banner
func (b *Banner) Dismiss() {
	b.mu.Lock()
	b.dismissed = true
	b.mu.Unlock()
}

// Visible reports whether the banner is still shown at now
func (b *Banner) Visible(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.dismissed && !b.Expired(now)
}

// Expired reports whether the TTL has elapsed at now
func (b *Banner) Expired(now time.Time) bool {
	return b.TTL > 0 && !now.Before(b.ShownAt.Add(b.TTL))
}

// Text is the banner line: icon then message
func (b *Banner) Text() string {
	return b.icon() + " " + b.Message
}

func (b *Banner) icon() string {
	switch b.Kind {
	case BannerError:
		return "✗"
	case BannerSuccess:
		return "✓"
	default:
		return "ℹ"
	}
}
