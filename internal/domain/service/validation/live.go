package validation

import (
	"context"
	"sync"
	"time"

	"github.com/YoshitsuguKoike/regwiz/internal/domain/model/registration"
)

// Debounce delays for live validation
const (
	EmailDebounce   = 500 * time.Millisecond
	DefaultDebounce = 300 * time.Millisecond
)

// LiveResult is a field verdict delivered by LiveValidator.
type LiveResult struct {
	Field      registration.FieldName
	Value      string
	Generation uint64
	Result     registration.ValidationResult
}

// LiveValidator validates fields as the user types. Every request for a field
// gets a new generation; only the result of the latest generation is delivered.
type LiveValidator struct {
	validator *Validator
	deliver   func(LiveResult)
	delay     func(registration.FieldName) time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	gens     map[registration.FieldName]uint64
	timers   map[registration.FieldName]*time.Timer
	inflight map[registration.FieldName]context.CancelFunc
	wg       sync.WaitGroup
}

// NewLiveValidator creates a live validator that reports through deliver.
// deliver is called from background goroutines.
func NewLiveValidator(v *Validator, deliver func(LiveResult)) *LiveValidator {
	ctx, cancel := context.WithCancel(context.Background())
	return &LiveValidator{
		validator: v,
		deliver:   deliver,
		delay:     defaultDelay,
		ctx:       ctx,
		cancel:    cancel,
		gens:      make(map[registration.FieldName]uint64),
		timers:    make(map[registration.FieldName]*time.Timer),
		inflight:  make(map[registration.FieldName]context.CancelFunc),
	}
}

func defaultDelay(name registration.FieldName) time.Duration {
	if name == registration.FieldEmail {
		return EmailDebounce
	}
	return DefaultDebounce
}

// SetDelay overrides the debounce delay per field
func (l *LiveValidator) SetDelay(fn func(registration.FieldName) time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.delay = fn
}

// Input schedules a debounced check, superseding any pending or running one for the field.
// It returns the generation assigned to the request.
func (l *LiveValidator) Input(name registration.FieldName, value string, form Form) uint64 {
	l.mu.Lock()
	delay := l.delay(name)
	l.mu.Unlock()
	return l.schedule(name, value, form, delay)
}

// Blur checks the field immediately, superseding any pending check.
func (l *LiveValidator) Blur(name registration.FieldName, value string, form Form) uint64 {
	return l.schedule(name, value, form, 0)
}

// Latest returns the current generation for a field
func (l *LiveValidator) Latest(name registration.FieldName) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gens[name]
}

func (l *LiveValidator) schedule(name registration.FieldName, value string, form Form, delay time.Duration) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return l.gens[name]
	}

	l.gens[name]++
	gen := l.gens[name]

	if t, ok := l.timers[name]; ok && t.Stop() {
		l.wg.Done()
	}
	if cancel, ok := l.inflight[name]; ok {
		cancel()
		delete(l.inflight, name)
	}

	l.wg.Add(1)
	l.timers[name] = time.AfterFunc(delay, func() {
		defer l.wg.Done()
		l.run(name, value, form, gen)
	})
	return gen
}

func (l *LiveValidator) run(name registration.FieldName, value string, form Form, gen uint64) {
	l.mu.Lock()
	if l.closed || l.gens[name] != gen {
		l.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(l.ctx)
	l.inflight[name] = cancel
	l.mu.Unlock()

	res := l.validator.ValidateField(ctx, name, value, form)
	cancel()

	l.mu.Lock()
	current := !l.closed && l.gens[name] == gen
	if current {
		delete(l.inflight, name)
	}
	l.mu.Unlock()

	if current && l.deliver != nil {
		l.deliver(LiveResult{Field: name, Value: value, Generation: gen, Result: res})
	}
}

// Close stops pending timers, cancels running checks and waits for them to return.
// No result is delivered after Close returns.
func (l *LiveValidator) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	for name, t := range l.timers {
		if t.Stop() {
			l.wg.Done()
		}
		delete(l.timers, name)
	}
	l.mu.Unlock()

	l.cancel()
	l.wg.Wait()
}
