package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
	symbolPattern  = regexp.MustCompile(`[^A-Za-z0-9]`)
	commonSequence = regexp.MustCompile(`(?i)123|abc|qwe|password|admin`)
)

// MinPasswordScore is the score a password needs to be accepted
const MinPasswordScore = 5

// StrengthLevel buckets a password score for display
type StrengthLevel string

const (
	StrengthNone       StrengthLevel = "none"
	StrengthVeryWeak   StrengthLevel = "very-weak"
	StrengthWeak       StrengthLevel = "weak"
	StrengthMedium     StrengthLevel = "medium"
	StrengthStrong     StrengthLevel = "strong"
	StrengthVeryStrong StrengthLevel = "very-strong"
)

// Strength describes how strong a password is.
type Strength struct {
	Score    int           `json:"score"`
	Level    StrengthLevel `json:"level"`
	Text     string        `json:"text"`
	Feedback []string      `json:"feedback,omitempty"`
}

// PasswordScore rates a password on eight checks and lists what is missing.
func PasswordScore(password string) (int, []string) {
	score, feedback := compositionScore(password)
	if !hasTripleRepeat(password) {
		score++
	} else {
		feedback = append(feedback, "تجنب تكرار الأحرف")
	}
	if !commonSequence.MatchString(password) {
		score++
	} else {
		feedback = append(feedback, "تجنب الكلمات الشائعة")
	}
	return score, feedback
}

func compositionScore(password string) (int, []string) {
	score := 0
	var feedback []string
	n := utf8.RuneCountInString(password)

	if n >= 8 {
		score++
	} else {
		feedback = append(feedback, "استخدم 8 أحرف على الأقل")
	}
	if n >= 12 {
		score++
	}
	if lowerPattern.MatchString(password) {
		score++
	} else {
		feedback = append(feedback, "أضف أحرف صغيرة")
	}
	if upperPattern.MatchString(password) {
		score++
	} else {
		feedback = append(feedback, "أضف أحرف كبيرة")
	}
	if digitPattern.MatchString(password) {
		score++
	} else {
		feedback = append(feedback, "أضف أرقام")
	}
	if symbolPattern.MatchString(password) {
		score++
	} else {
		feedback = append(feedback, "أضف رموز خاصة")
	}
	return score, feedback
}

// RE2 has no backreferences, so (.)\1{2,} is checked by hand.
func hasTripleRepeat(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if run > 0 && r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= 3 {
			return true
		}
	}
	return false
}

// WeakPasswordMessage renders the rejection message for a weak password
func WeakPasswordMessage(feedback []string) string {
	return "كلمة المرور ضعيفة (" + strings.Join(feedback, "، ") + ")"
}

// MeasureStrength rates a password for the strength indicator. It uses the six
// composition checks only, so it is more lenient than PasswordScore.
func MeasureStrength(password string) Strength {
	if password == "" {
		return Strength{Level: StrengthNone}
	}
	score, feedback := compositionScore(password)

	s := Strength{Score: score, Feedback: feedback}
	switch {
	case score < 2:
		s.Level, s.Text = StrengthVeryWeak, "ضعيفة جداً"
	case score < 3:
		s.Level, s.Text = StrengthWeak, "ضعيفة"
	case score < 5:
		s.Level, s.Text = StrengthMedium, "متوسطة"
	case score < 6:
		s.Level, s.Text = StrengthStrong, "قوية"
	default:
		s.Level, s.Text = StrengthVeryStrong, "قوية جداً"
	}
	return s
}
