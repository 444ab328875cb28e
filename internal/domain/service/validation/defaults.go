package validation

import (
	"context"
	"regexp"

	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

var (
	namePattern      = regexp.MustCompile(`^[\x{0600}-\x{06FF}a-zA-Z\s]+$`)
	phoneShape       = regexp.MustCompile(`^[0-9+\-\s()]{10,}$`)
	phoneClean       = regexp.MustCompile(`[^\d+]`)
	phoneStrict      = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	subdomainPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
	digitsPattern    = regexp.MustCompile(`^[0-9]+$`)
)

// SubdomainPattern is the accepted subdomain shape
func SubdomainPattern() *regexp.Regexp {
	return subdomainPattern
}

// DefaultRules returns the rule set for the registration form. Availability
// questions for email and subdomain go to checker.
func DefaultRules(checker AvailabilityChecker) map[registration.FieldName][]Rule {
	availability := func(field registration.FieldName) CustomFunc {
		return func(ctx context.Context, value string, _ Form) (registration.ValidationResult, error) {
			return checker.CheckAvailability(ctx, field, value)
		}
	}

	return map[registration.FieldName][]Rule{
		registration.FieldFirstName: {
			Required("الاسم الأول مطلوب"),
			MinLength(2, "يجب أن يكون الاسم أكثر من حرفين"),
			MaxLength(50, "الاسم طويل جداً"),
			Pattern(namePattern, "يجب أن يحتوي على أحرف فقط"),
		},
		registration.FieldLastName: {
			Required("الاسم الأخير مطلوب"),
			MinLength(2, "يجب أن يكون الاسم أكثر من حرفين"),
			MaxLength(50, "الاسم طويل جداً"),
			Pattern(namePattern, "يجب أن يحتوي على أحرف فقط"),
		},
		registration.FieldEmail: {
			Required("البريد الإلكتروني مطلوب"),
			Email("يرجى إدخال بريد إلكتروني صحيح"),
			Custom(availability(registration.FieldEmail), msgEmailTaken),
		},
		registration.FieldPhone: {
			Required("رقم الهاتف مطلوب"),
			Pattern(phoneShape, "يرجى إدخال رقم هاتف صحيح"),
			Custom(checkPhone, "رقم الهاتف غير صحيح"),
		},
		registration.FieldCountry: {
			Required("الدولة مطلوبة"),
		},
		registration.FieldAddress: {
			Required("العنوان مطلوب"),
			MaxLength(255, "العنوان طويل جداً"),
		},
		registration.FieldBusinessName: {
			Required("اسم النشاط التجاري مطلوب"),
			MinLength(3, "يجب أن يكون اسم النشاط أكثر من 3 أحرف"),
			MaxLength(100, "اسم النشاط طويل جداً"),
		},
		registration.FieldBusinessType: {
			Required("نوع النشاط التجاري مطلوب"),
		},
		registration.FieldBusinessSize: {
			Required("حجم النشاط التجاري مطلوب"),
		},
		registration.FieldSubdomain: {
			Required("اسم النطاق الفرعي مطلوب"),
			MinLength(3, "يجب أن يكون أكثر من 3 أحرف"),
			MaxLength(30, "اسم النطاق طويل جداً"),
			Pattern(subdomainPattern, "يجب أن يحتوي على أحرف إنجليزية وأرقام فقط"),
			Custom(availability(registration.FieldSubdomain), msgSubdomainTaken),
		},
		registration.FieldBranches: {
			Pattern(digitsPattern, "عدد الفروع يجب أن يكون رقماً"),
		},
		registration.FieldBusinessDescription: {
			MaxLength(1000, "الوصف طويل جداً"),
		},
		registration.FieldPassword: {
			Required("كلمة المرور مطلوبة"),
			MinLength(8, "يجب أن تكون كلمة المرور 8 أحرف على الأقل"),
			Custom(checkPasswordStrength, "كلمة المرور ضعيفة جداً"),
		},
		registration.FieldConfirmPassword: {
			Required("تأكيد كلمة المرور مطلوب"),
			Custom(checkPasswordMatch, "كلمة المرور غير متطابقة"),
		},
	}
}

func checkPhone(_ context.Context, value string, _ Form) (registration.ValidationResult, error) {
	clean := phoneClean.ReplaceAllString(value, "")
	switch {
	case len(clean) < 10:
		return registration.Invalid("رقم الهاتف قصير جداً"), nil
	case len(clean) > 15:
		return registration.Invalid("رقم الهاتف طويل جداً"), nil
	case !phoneStrict.MatchString(clean):
		return registration.Invalid("تنسيق رقم الهاتف غير صحيح"), nil
	}
	return registration.Valid(), nil
}

func checkPasswordStrength(_ context.Context, value string, _ Form) (registration.ValidationResult, error) {
	score, feedback := PasswordScore(value)
	if score >= MinPasswordScore {
		return registration.Valid(), nil
	}
	return registration.Invalid(WeakPasswordMessage(feedback)), nil
}

func checkPasswordMatch(_ context.Context, value string, form Form) (registration.ValidationResult, error) {
	password := form.Value(registration.FieldPassword)
	if password != "" && value == password {
		return registration.Valid(), nil
	}
	return registration.Invalid("كلمة المرور غير متطابقة"), nil
}
