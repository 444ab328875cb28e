package registration

// FieldName identifies one value collected by the registration wizard.
type FieldName string

const (
	// Step 1: customer
	FieldFirstName FieldName = "firstName"
	FieldLastName  FieldName = "lastName"
	FieldEmail     FieldName = "email"
	FieldPhone     FieldName = "phone"
	FieldCountry   FieldName = "country"
	FieldAddress   FieldName = "address"

	// Step 2: business
	FieldBusinessName        FieldName = "businessName"
	FieldBusinessType        FieldName = "businessType"
	FieldBusinessSize        FieldName = "businessSize"
	FieldSubdomain           FieldName = "subdomain"
	FieldExpectedRevenue     FieldName = "expectedRevenue"
	FieldBusinessDescription FieldName = "businessDescription"
	FieldBranches            FieldName = "branches"

	// Step 3: plan & payment
	FieldPassword        FieldName = "password"
	FieldConfirmPassword FieldName = "confirmPassword"
	FieldAgreeTerms      FieldName = "agreeTerms"

	// System fields, written by the controller only
	FieldCustomerID FieldName = "customer_id"
	FieldBusinessID FieldName = "business_id"
	FieldPlanID     FieldName = "plan_id"
)

// String returns the string representation
func (f FieldName) String() string {
	return string(f)
}

var stepFields = map[Step][]FieldName{
	StepCustomer: {FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldCountry, FieldAddress},
	StepBusiness: {
		FieldBusinessName, FieldBusinessType, FieldBusinessSize, FieldSubdomain,
		FieldExpectedRevenue, FieldBusinessDescription, FieldBranches,
	},
	StepPlan: {FieldPassword, FieldConfirmPassword, FieldAgreeTerms},
}

var systemFields = map[FieldName]bool{
	FieldCustomerID: true,
	FieldBusinessID: true,
	FieldPlanID:     true,
}

var credentialFields = map[FieldName]bool{
	FieldPassword:        true,
	FieldConfirmPassword: true,
}

var optionalFields = map[FieldName]bool{
	FieldExpectedRevenue:     true,
	FieldBusinessDescription: true,
	FieldBranches:            true,
}

var recognized = func() map[FieldName]Step {
	m := make(map[FieldName]Step)
	for step, names := range stepFields {
		for _, n := range names {
			m[n] = step
		}
	}
	for n := range systemFields {
		m[n] = 0
	}
	return m
}()

// IsRecognized reports whether name belongs to the wizard's field set.
func IsRecognized(name FieldName) bool {
	_, ok := recognized[name]
	return ok
}

// IsSystem reports whether name is maintained by the controller rather than the user.
func IsSystem(name FieldName) bool {
	return systemFields[name]
}

// IsCredential reports whether name holds a secret that must never be persisted.
func IsCredential(name FieldName) bool {
	return credentialFields[name]
}

// IsOptional reports whether an empty value is acceptable for name.
func IsOptional(name FieldName) bool {
	return optionalFields[name]
}

// StepOf returns the step that collects name, or 0 for system and unknown fields.
func StepOf(name FieldName) Step {
	return recognized[name]
}

// FieldsForStep returns the user-entered fields collected on step, in display order.
func FieldsForStep(step Step) []FieldName {
	names := stepFields[step]
	out := make([]FieldName, len(names))
	copy(out, names)
	return out
}

// IsAccepted interprets a checkbox-style value.
func IsAccepted(value string) bool {
	switch value {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}
