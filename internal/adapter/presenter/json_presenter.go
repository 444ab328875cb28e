package presenter

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/YoshitsuguKoike/regwiz/internal/application/dto"
	"github.com/YoshitsuguKoike/regwiz/internal/application/port/output"
	"github.com/YoshitsuguKoike/regwiz/internal/application/usecase/wizard"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

// JSONPresenter implements output.WizardPresenter for JSON output
// Formats all output as JSON for programmatic consumption
type JSONPresenter struct {
	output io.Writer
}

// NewJSONPresenter creates a new JSON presenter
func NewJSONPresenter(output io.Writer) output.WizardPresenter {
	return &JSONPresenter{output: output}
}

func (p *JSONPresenter) encode(v interface{}) error {
	return json.NewEncoder(p.output).Encode(v)
}

// PresentSuccess presents a successful result as JSON
func (p *JSONPresenter) PresentSuccess(message string, data interface{}) error {
	return p.encode(map[string]interface{}{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// PresentError presents an error as JSON. Step errors carry their kind,
// step and field messages.
func (p *JSONPresenter) PresentError(err error) error {
	result := map[string]interface{}{
		"success": false,
	}
	if err == nil {
		result["error"] = "unknown error"
		return p.encode(result)
	}
	result["error"] = err.Error()

	var se *wizard.StepError
	if errors.As(err, &se) {
		result["error"] = se.UserMessage()
		result["kind"] = se.Kind
		result["step"] = int(se.Step)
		if se.Result != nil {
			result["validation"] = se.Result
		}
	}
	if encErr := p.encode(result); encErr != nil {
		return encErr
	}
	return err
}

// PresentProgress presents progress information as JSON
func (p *JSONPresenter) PresentProgress(message string, progress int, total int) error {
	percent := 0.0
	if total > 0 {
		percent = float64(progress) / float64(total) * 100
	}
	return p.encode(map[string]interface{}{
		"type":     "progress",
		"message":  message,
		"progress": progress,
		"total":    total,
		"percent":  percent,
	})
}

// PresentValidation presents a step result as JSON
func (p *JSONPresenter) PresentValidation(result *registration.StepResult) error {
	if result == nil {
		return nil
	}
	return p.encode(map[string]interface{}{
		"type":       "validation",
		"validation": result,
		"messages":   result.Messages(),
	})
}

// PresentPlans presents the catalogue as JSON
func (p *JSONPresenter) PresentPlans(plans []registration.Plan, selectedID string) error {
	return p.encode(map[string]interface{}{
		"success": true,
		"plans":   dto.NewPlanListDTO(plans, selectedID),
	})
}

// PresentRedirect presents the redirect target as JSON
func (p *JSONPresenter) PresentRedirect(url string) error {
	return p.encode(map[string]interface{}{
		"type": "redirect",
		"url":  url,
	})
}
