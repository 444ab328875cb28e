package registration

// ValidationResult is the outcome of checking one field value.
type ValidationResult struct {
	IsValid bool   `json:"is_valid"`
	Message string `json:"message,omitempty"`
}

// Valid is the passing result
func Valid() ValidationResult {
	return ValidationResult{IsValid: true}
}

// Invalid returns a failing result carrying a user-facing message
func Invalid(message string) ValidationResult {
	return ValidationResult{IsValid: false, Message: message}
}

// StepResult aggregates every field result of a step plus step-level checks.
type StepResult struct {
	Step    Step                           `json:"step"`
	IsValid bool                           `json:"is_valid"`
	Fields  map[FieldName]ValidationResult `json:"fields"`
	Errors  []string                       `json:"errors,omitempty"`
}

// NewStepResult creates an empty, passing result for step
func NewStepResult(step Step) *StepResult {
	return &StepResult{
		Step:    step,
		IsValid: true,
		Fields:  make(map[FieldName]ValidationResult),
	}
}

// SetField records a field result
func (r *StepResult) SetField(name FieldName, res ValidationResult) {
	r.Fields[name] = res
	if !res.IsValid {
		r.IsValid = false
	}
}

// AddError records a step-level failure
func (r *StepResult) AddError(message string) {
	r.Errors = append(r.Errors, message)
	r.IsValid = false
}

// Messages lists every failure message: field messages in step order, then step-level ones.
func (r *StepResult) Messages() []string {
	var out []string
	for _, name := range FieldsForStep(r.Step) {
		if res, ok := r.Fields[name]; ok && !res.IsValid {
			out = append(out, res.Message)
		}
	}
	return append(out, r.Errors...)
}

// FirstMessage returns the first failure message, if any.
func (r *StepResult) FirstMessage() string {
	msgs := r.Messages()
	if len(msgs) == 0 {
		return ""
	}
	return msgs[0]
}
