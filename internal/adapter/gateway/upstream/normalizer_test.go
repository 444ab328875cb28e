package upstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSuccess(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"2xx with empty object", 200, `{}`, true},
		{"2xx with empty body", 201, ``, true},
		{"2xx with failure words", 204, `{"message":"failed"}`, true},
		{"arabic success message on 404", 404, `{"message":"تم بنجاح"}`, true},
		{"english success message on 422", 422, `{"message":"Customer CREATED"}`, true},
		{"fullwidth success word", 500, `{"message":"ＳＵＣＣＥＳＳ"}`, true},
		{"failure message", 404, `{"message":"failed"}`, false},
		{"non-string message", 400, `{"message":{"text":"success"}}`, false},
		{"no message", 500, `{"errors":"boom"}`, false},
		{"garbage body", 500, `<html>`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSuccess(tt.status, []byte(tt.body)))
		})
	}
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"2xx ignores a false flag", 200, `{"success":false,"id":"c-9"}`, true},
		{"201 ignores a false flag", 201, `{"success":false,"message":"duplicate"}`, true},
		{"5xx ignores a true flag", 500, `{"success":true,"message":"boom"}`, false},
		{"4xx with a true flag and no message", 400, `{"success":true}`, false},
		{"4xx with a success message", 409, `{"success":false,"message":"تم التسجيل"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Interpret(tt.status, []byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Success)
			assert.Equal(t, tt.want, IsSuccess(tt.status, []byte(tt.body)))
		})
	}

	out, err := Interpret(201, nil)
	require.NoError(t, err)
	assert.True(t, out.Success)

	_, err = Interpret(200, []byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestExtractID(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		paths  []KeyPath
		want   string
		wantOK bool
	}{
		{"top-level customer_id", `{"customer_id":"c-9","id":"x"}`, CustomerIDPaths, "c-9", true},
		{"numeric id", `{"id":12345678901234567890}`, CustomerIDPaths, "12345678901234567890", true},
		{"nested data.id", `{"data":{"id":7}}`, CustomerIDPaths, "7", true},
		{"user.id last resort", `{"user":{"id":"u1"}}`, CustomerIDPaths, "u1", true},
		{"zero and empty skipped", `{"customer_id":0,"id":"","data":{"customer_id":"d1"}}`, CustomerIDPaths, "d1", true},
		{"business.id", `{"business":{"id":"b1"}}`, BusinessIDPaths, "b1", true},
		{"user.id not a business path", `{"user":{"id":"u1"}}`, BusinessIDPaths, "", false},
		{"nothing matches", `{"ok":true}`, CustomerIDPaths, "", false},
		{"path through scalar", `{"data":"oops"}`, CustomerIDPaths, "", false},
		{"array body", `[1,2]`, CustomerIDPaths, "", false},
		{"invalid json", `{`, CustomerIDPaths, "", false},
		{"empty body", ``, CustomerIDPaths, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractID([]byte(tt.body), tt.paths)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message wins", `{"message":"bad","errors":{"a":["x"]}}`, "bad"},
		{"errors string", `{"errors":"subdomain taken"}`, "subdomain taken"},
		{
			"errors object keeps server order",
			`{"errors":{"subdomain":["taken","too short"],"email":["invalid"],"phone":"missing"}}`,
			"taken, too short, invalid, missing",
		},
		{"errors array", `{"errors":["a","b"]}`, "a, b"},
		{"empty errors object", `{"errors":{}}`, MsgUnknownError},
		{"nothing useful", `{"status":false}`, MsgUnknownError},
		{"empty body", ``, MsgUnknownError},
		{"not json", `Internal Server Error`, MsgInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractErrorMessage([]byte(tt.body)))
		})
	}
}
