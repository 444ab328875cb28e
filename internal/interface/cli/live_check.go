package cli

import (
	"context"
	"errors"
	"sync"

	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
	"github.com/YoshitsuguKoike/regwiz/internal/domain/service/validation"
)

// fieldCheck drives live validation for the interactive prompts. Only the
// verdict of the latest request per field is kept.
type fieldCheck struct {
	live *validation.LiveValidator

	mu      sync.Mutex
	latest  map[registration.FieldName]validation.LiveResult
	updated chan struct{}
}

func newFieldCheck(v *validation.Validator) *fieldCheck {
	c := &fieldCheck{
		latest:  make(map[registration.FieldName]validation.LiveResult),
		updated: make(chan struct{}, 1),
	}
	c.live = validation.NewLiveValidator(v, c.deliver)
	return c
}

func (c *fieldCheck) deliver(r validation.LiveResult) {
	c.mu.Lock()
	if prev, ok := c.latest[r.Field]; !ok || r.Generation > prev.Generation {
		c.latest[r.Field] = r
	}
	c.mu.Unlock()

	select {
	case c.updated <- struct{}{}:
	default:
	}
}

func (c *fieldCheck) known(name registration.FieldName) (validation.LiveResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.latest[name]
	return r, ok
}

// keystroke is the prompt's per-edit hook. Every edit schedules a debounced
// check; a verdict is shown only when it was computed for exactly the text
// on screen.
func (c *fieldCheck) keystroke(name registration.FieldName, form validation.Form) func(string) error {
	return func(value string) error {
		c.live.Input(name, value, withValue(form, name, value))
		if r, ok := c.known(name); ok && r.Value == value && !r.Result.IsValid {
			return errors.New(r.Result.Message)
		}
		return nil
	}
}

// settle checks the submitted value at once and waits for its verdict
func (c *fieldCheck) settle(ctx context.Context, name registration.FieldName, value string, form validation.Form) (registration.ValidationResult, error) {
	gen := c.live.Blur(name, value, withValue(form, name, value))
	for {
		if r, ok := c.known(name); ok && r.Generation >= gen {
			return r.Result, nil
		}
		select {
		case <-c.updated:
		case <-ctx.Done():
			return registration.ValidationResult{}, ctx.Err()
		}
	}
}

func (c *fieldCheck) Close() {
	c.live.Close()
}

func withValue(form validation.Form, name registration.FieldName, value string) validation.Form {
	values := make(map[registration.FieldName]string, len(form.Values)+1)
	for k, v := range form.Values {
		values[k] = v
	}
	values[name] = value
	return validation.Form{Values: values, PlanSelected: form.PlanSelected}
}
