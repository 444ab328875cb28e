package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoshitsuguKoike/regwiz/internal/adapter/presenter"
	"github.com/YoshitsuguKoike/regwiz/internal/app/config"
)

const plansBody = `{"status":true,"plans":[
	{"id":1,"name":"Starter","price":"0","duration":"1","duration_type":"monthly","description":[{"item":"POS"}]},
	{"id":2,"name":"Pro","price":"199","duration":"1","duration_type":"monthly","description":[{"item":"Reports"}]}
]}`

// scriptedPrompter answers prompts from queues; an empty queue interrupts.
// Answers are keyed by the label without its banner suffix.
type scriptedPrompter struct {
	answers  map[string][]string
	choices  []int
	confirms []bool

	// typing runs before the answer is returned, as if the user edited the input
	typing map[string]func(validate func(string) error)
	labels []string
}

func (p *scriptedPrompter) Ask(label, def string, secret bool, validate func(string) error) (string, error) {
	p.labels = append(p.labels, label)
	key, _, _ := strings.Cut(label, " [")
	queue := p.answers[key]
	if len(queue) == 0 {
		return "", ErrInterrupted
	}
	if edit, ok := p.typing[key]; ok && validate != nil {
		edit(validate)
	}
	p.answers[key] = queue[1:]
	return queue[0], nil
}

func (p *scriptedPrompter) Choose(label string, items []string) (int, error) {
	if len(p.choices) == 0 {
		return 0, ErrInterrupted
	}
	c := p.choices[0]
	p.choices = p.choices[1:]
	return c, nil
}

func (p *scriptedPrompter) Confirm(label string) (bool, error) {
	if len(p.confirms) == 0 {
		return false, ErrInterrupted
	}
	c := p.confirms[0]
	p.confirms = p.confirms[1:]
	return c, nil
}

type harness struct {
	t        *testing.T
	fs       afero.Fs
	cfg      config.Config
	prompter *scriptedPrompter
	now      func() time.Time

	// availability answers the availability endpoint; nil reports every value free
	availability http.HandlerFunc

	mu    sync.Mutex
	calls map[string]int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		fs:       afero.NewMemMapFs(),
		prompter: &scriptedPrompter{answers: map[string][]string{}},
		calls:    map[string]int{},
	}

	mux := http.NewServeMux()
	reply := func(path, body string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			h.mu.Lock()
			h.calls[path]++
			h.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, body)
		})
	}
	reply("/plans", plansBody)
	reply("/customer", `{"success":true,"customer_id":"c-1"}`)
	reply("/business", `{"success":true,"business_id":"b-1"}`)
	reply("/payment", `{"status":"success","url":"https://pay.example.com/inv/1"}`)
	mux.HandleFunc("/availability", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if h.availability != nil {
			h.availability(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"available":true}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	h.cfg = config.NewAppConfig(config.Values{
		Home:            "/home",
		TimeoutSec:      5,
		PlansURL:        srv.URL + "/plans",
		CustomerURL:     srv.URL + "/customer",
		BusinessURL:     srv.URL + "/business",
		PaymentURL:      srv.URL + "/payment",
		AvailabilityURL: srv.URL + "/availability",
		SuccessURL:      "https://example.com/payment-success",
		StoreBackend:    "file",
		StorePath:       "/state",
		LogLevel:        "error",
		LogFormat:       "console",
	}, "default", "")
	return h
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	out := &bytes.Buffer{}
	root := NewRootWithOptions(Options{
		Out: out,
		Err: io.Discard,
		LoadConfig: func(string) (config.Config, error) {
			return h.cfg, nil
		},
		FS:       h.fs,
		Prompter: h.prompter,
		Now:      h.now,
	})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func (h *harness) callCount(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[path]
}

var customerArgs = []string{
	"set", "firstName=Sara", "lastName=Ali", "email=sara@example.com",
	"phone=+201001234567", "country=EG", "address=Cairo",
}

var businessArgs = []string{
	"set", "businessName=Acme Store", "businessType=retail", "businessSize=small",
	"subdomain=acmestore", "branches=2",
}

func TestWizardCommands_PaidPlan(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(customerArgs...)
	require.NoError(t, err)
	out, err := h.run("next")
	require.NoError(t, err)
	assert.Contains(t, out, "Step 1 complete")
	assert.Equal(t, 1, h.callCount("/customer"))

	_, err = h.run(businessArgs...)
	require.NoError(t, err)
	_, err = h.run("next")
	require.NoError(t, err)
	assert.Equal(t, 1, h.callCount("/business"))

	out, err = h.run("select-plan", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "* [2] Pro")

	out, err = h.run("submit", "--password", "Strong#Pass9", "--confirm-password", "Strong#Pass9", "--agree-terms")
	require.NoError(t, err)
	assert.Contains(t, out, "Continue at: https://pay.example.com/inv/1")
	assert.Equal(t, 1, h.callCount("/payment"))

	out, err = h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Step 1/3", "saved progress is cleared after submission")
}

func TestWizardCommands_StatusRestoresProgress(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(customerArgs...)
	require.NoError(t, err)

	out, err := h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "firstName: Sara")
	assert.Contains(t, out, "Step 1/3")
}

func TestWizardCommands_NextValidationFailure(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("set", "firstName=Sara")
	require.NoError(t, err)

	out, err := h.run("next")
	require.Error(t, err)
	assert.Contains(t, out, "  - email:")
	assert.Equal(t, 0, h.callCount("/customer"))
}

func TestWizardCommands_SetRejections(t *testing.T) {
	tests := []struct {
		name    string
		arg     string
		wantErr error
	}{
		{"password", "password=secret", ErrCredentialNotSaved},
		{"unknown field", "nickname=x", nil},
		{"system field", "customer_id=c-9", nil},
		{"not an assignment", "firstName", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.run("set", tt.arg)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
		})
	}
}

func TestWizardCommands_SetShowsFieldErrors(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("set", "email=not-an-email")
	require.NoError(t, err, "values are saved even when invalid")
	assert.Contains(t, out, "Saved 1 field(s)")
	assert.Contains(t, out, "  - email:")
}

func TestWizardCommands_BackAndReset(t *testing.T) {
	h := newHarness(t)

	_, err := h.run(customerArgs...)
	require.NoError(t, err)
	_, err = h.run("next")
	require.NoError(t, err)

	out, err := h.run("back")
	require.NoError(t, err)
	assert.Contains(t, out, "Step 1/3")
	assert.Contains(t, out, "firstName: Sara")

	_, err = h.run("reset")
	require.NoError(t, err)
	out, err = h.run("status")
	require.NoError(t, err)
	assert.NotContains(t, out, "Sara")
}

func TestWizardCommands_JSONOutput(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("-o", "json", "plans")
	require.NoError(t, err)

	var result struct {
		Success bool `json:"success"`
		Plans   []struct {
			ID   string `json:"id"`
			Free bool   `json:"free"`
		} `json:"plans"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Plans, 2)
	assert.True(t, result.Plans[0].Free)
}

func TestRegister_FreePlan(t *testing.T) {
	h := newHarness(t)
	h.prompter.answers = map[string][]string{
		"firstName":           {"Sara"},
		"lastName":            {"Ali"},
		"email":               {"not-an-email", "sara@example.com"},
		"phone":               {"+201001234567"},
		"country":             {"EG"},
		"address":             {"Cairo"},
		"businessName":        {"Acme Store"},
		"businessType":        {"retail"},
		"businessSize":        {"small"},
		"subdomain":           {"acmestore"},
		"expectedRevenue":     {""},
		"businessDescription": {""},
		"branches":            {"2"},
		"password":            {"Strong#Pass9"},
		"confirmPassword":     {"Strong#Pass9"},
	}
	h.prompter.choices = []int{0, 0, 0} // continue, continue, Starter
	h.prompter.confirms = []bool{true}  // terms

	out, err := h.run("register")
	require.NoError(t, err)
	assert.Contains(t, out, "Free plan")
	assert.Contains(t, out, "free_plan=1")
	assert.Contains(t, out, "Password strength")
	assert.Equal(t, 0, h.callCount("/payment"))
	assert.Empty(t, h.prompter.answers["email"], "invalid email was asked again")
}

func TestRegister_ErrorBannerFollowsPrompts(t *testing.T) {
	h := newHarness(t)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return clock }
	h.prompter.answers = map[string][]string{
		"firstName": {"Sara"},
		"lastName":  {"Ali"},
		"email":     {"not-an-email", "sara@example.com"},
		"phone":     {"+201001234567"},
	}

	_, err := h.run("register")
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(h.prompter.labels), 5) // firstName, lastName, email twice, phone
	assert.Equal(t, "email", h.prompter.labels[2])
	assert.True(t, strings.HasPrefix(h.prompter.labels[3], "email [✗ "), "retry shows the error: %q", h.prompter.labels[3])
	assert.Equal(t, "phone", h.prompter.labels[4], "a valid answer dismisses the banner")
}

func TestSession_PromptLabelHidesExpiredBanner(t *testing.T) {
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s := &session{opts: Options{Now: func() time.Time { return clock }}}
	assert.Equal(t, "email", s.promptLabel("email"))

	s.banner = presenter.ErrorBanner(errors.New("bad email"), clock)
	assert.Equal(t, "email [✗ bad email]", s.promptLabel("email"))

	clock = clock.Add(presenter.BannerTTL + time.Second)
	assert.Equal(t, "email", s.promptLabel("email"), "expired")

	s.banner = presenter.ErrorBanner(errors.New("bad phone"), clock)
	s.dismissBanner()
	assert.Equal(t, "phone", s.promptLabel("phone"), "dismissed")
}

var businessAnswers = map[string][]string{
	"firstName":           {"Sara"},
	"lastName":            {"Ali"},
	"email":               {"sara@example.com"},
	"phone":               {"+201001234567"},
	"country":             {"EG"},
	"address":             {"Cairo"},
	"businessName":        {"Acme Store"},
	"businessType":        {"retail"},
	"businessSize":        {"small"},
	"subdomain":           {"acmestore"},
	"expectedRevenue":     {""},
	"businessDescription": {""},
	"branches":            {"2"},
}

func copyAnswers(src map[string][]string) map[string][]string {
	dst := make(map[string][]string, len(src))
	for k, v := range src {
		dst[k] = append([]string(nil), v...)
	}
	return dst
}

func TestRegister_LiveCheckShowsVerdictForTypedText(t *testing.T) {
	h := newHarness(t)
	h.prompter.answers = copyAnswers(businessAnswers)
	h.prompter.choices = []int{0} // continue into step 2

	var shown error
	h.prompter.typing = map[string]func(func(string) error){
		"subdomain": func(validate func(string) error) {
			// each edit restarts the debounce, so wait past it between edits
			for i := 0; i < 8 && shown == nil; i++ {
				shown = validate("admin")
				time.Sleep(400 * time.Millisecond)
			}
		},
	}

	out, err := h.run("register")
	require.NoError(t, err)
	require.Error(t, shown, "reserved subdomain is reported while typing")
	assert.Equal(t, "هذا الاسم محجوز، يرجى اختيار اسم آخر", shown.Error())
	assert.Contains(t, out, "Progress saved")
}

func TestRegister_LiveCheckDropsSupersededAnswer(t *testing.T) {
	h := newHarness(t)
	started := make(chan struct{})
	var once sync.Once
	h.availability = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("value") != "slowname" {
			_, _ = io.WriteString(w, `{"available":true}`)
			return
		}
		once.Do(func() { close(started) })
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		_, _ = io.WriteString(w, `{"available":false,"message":"slowname is taken"}`)
	}
	h.prompter.answers = copyAnswers(businessAnswers)
	h.prompter.choices = []int{0}

	var typed error
	h.prompter.typing = map[string]func(func(string) error){
		"subdomain": func(validate func(string) error) {
			typed = validate("slowname")
			select {
			case <-started:
			case <-time.After(2 * time.Second):
				t.Error("availability check for the typed text never started")
			}
		},
	}

	out, err := h.run("register")
	require.NoError(t, err)
	assert.NoError(t, typed)
	assert.NotContains(t, out, "slowname is taken", "answer for replaced text is never shown")
	assert.Equal(t, 1, h.callCount("/business"))

	out, err = h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "subdomain: acmestore")
	assert.Contains(t, out, "Step 3/3")
}

func TestRegister_InterruptSavesProgress(t *testing.T) {
	h := newHarness(t)
	h.prompter.answers = map[string][]string{
		"firstName": {"Sara"},
		"lastName":  {"Ali"},
		"email":     {"sara@example.com"},
		"phone":     {"+201001234567"},
		"country":   {"EG"},
		"address":   {"Cairo"},
	}

	out, err := h.run("register")
	require.NoError(t, err)
	assert.Contains(t, out, "Progress saved")

	out, err = h.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "Step 2/3")
	assert.Contains(t, out, "Customer ID: c-1")
}

func TestInitCommand(t *testing.T) {
	h := newHarness(t)
	h.cfg = nil

	out, err := h.run("init", "--home", "/cfg")
	require.NoError(t, err)
	assert.Contains(t, out, "Created /cfg/setting.yml")

	data, err := afero.ReadFile(h.fs, "/cfg/setting.yml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: file")

	_, err = h.run("init", "--home", "/cfg")
	assert.Error(t, err)
	_, err = h.run("init", "--home", "/cfg", "--force")
	assert.NoError(t, err)
}

func TestVersionSkipsConfiguration(t *testing.T) {
	out := &bytes.Buffer{}
	root := NewRootWithOptions(Options{
		Out: out,
		Err: io.Discard,
		LoadConfig: func(string) (config.Config, error) {
			return nil, errors.New("must not load")
		},
	})
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "regwiz version")
}

func TestConfigErrorIsReported(t *testing.T) {
	errOut := &bytes.Buffer{}
	root := NewRootWithOptions(Options{
		Out: io.Discard,
		Err: errOut,
		LoadConfig: func(string) (config.Config, error) {
			return nil, errors.New("bad setting.yml")
		},
	})
	root.SetArgs([]string{"status"})
	require.Error(t, root.Execute())
	assert.Contains(t, errOut.String(), "bad setting.yml")
}
