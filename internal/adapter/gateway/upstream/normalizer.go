package upstream

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// User-facing messages for failed upstream calls
const (
	MsgUnknownError    = "حدث خطأ غير معروف"
	MsgInvalidResponse = "الخادم أرسل استجابة غير صالحة"
	MsgConnection      = "❌ خطأ في الاتصال بالخادم"
	MsgPaymentFailed   = "❌ فشل في معالجة الطلب"
)

// ErrInvalidJSON is returned when a non-empty body is not JSON
var ErrInvalidJSON = errors.New("response body is not valid JSON")

// KeyPath addresses a value in nested JSON objects
type KeyPath []string

// Path splits a dotted path such as "data.customer_id"
func Path(dotted string) KeyPath {
	return strings.Split(dotted, ".")
}

func (p KeyPath) String() string {
	return strings.Join(p, ".")
}

// Candidate id locations, tried in order
var (
	CustomerIDPaths = []KeyPath{
		Path("customer_id"), Path("id"), Path("data.customer_id"),
		Path("data.id"), Path("customer.id"), Path("user.id"),
	}
	BusinessIDPaths = []KeyPath{
		Path("business_id"), Path("id"), Path("data.business_id"),
		Path("data.id"), Path("business.id"),
	}
)

// decodeBody parses a response body. Empty bodies decode to nil without error.
func decodeBody(body []byte) (interface{}, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, ErrInvalidJSON
	}
	if dec.More() {
		return nil, ErrInvalidJSON
	}
	return v, nil
}

// Outcome is an interpreted upstream response
type Outcome struct {
	Status  int
	Success bool
	Body    []byte
}

// Interpret classifies a response with the same rule as IsSuccess: the status
// decides, the message is only consulted outside 2xx. Body flags such as
// "success" are not part of the contract.
// A non-empty body that is not JSON yields ErrInvalidJSON.
func Interpret(status int, body []byte) (Outcome, error) {
	v, err := decodeBody(body)
	if err != nil {
		return Outcome{Status: status, Body: body}, err
	}
	return Outcome{Status: status, Success: isSuccessDecoded(status, v), Body: body}, nil
}

// IsSuccess reports whether a response means success: any 2xx status, or a
// message field carrying a success word.
func IsSuccess(status int, body []byte) bool {
	v, err := decodeBody(body)
	if err != nil {
		v = nil
	}
	return isSuccessDecoded(status, v)
}

func isSuccessDecoded(status int, v interface{}) bool {
	if status >= 200 && status < 300 {
		return true
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return false
	}
	msg, ok := obj["message"].(string)
	if !ok || msg == "" {
		return false
	}
	return hasSuccessWord(msg)
}

// ExtractID returns the first non-empty scalar found along paths.
func ExtractID(body []byte, paths []KeyPath) (string, bool) {
	v, err := decodeBody(body)
	if err != nil || v == nil {
		return "", false
	}
	for _, p := range paths {
		if id, ok := scalarString(lookup(v, p)); ok {
			return id, true
		}
	}
	return "", false
}

func lookup(v interface{}, p KeyPath) interface{} {
	cur := v
	for _, key := range p {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}

// scalarString renders truthy strings and numbers; everything else is absent.
func scalarString(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, t != ""
	case json.Number:
		if f, err := t.Float64(); err == nil && f == 0 {
			return "", false
		}
		return t.String(), true
	}
	return "", false
}

// ExtractErrorMessage picks the most useful failure text from a response:
// the message field, then an errors string, then every entry of an errors
// object joined with ", ", then a generic fallback.
func ExtractErrorMessage(body []byte) string {
	v, err := decodeBody(body)
	if err != nil {
		return MsgInvalidResponse
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return MsgUnknownError
	}
	if msg, ok := scalarString(obj["message"]); ok {
		return msg
	}
	switch errs := obj["errors"].(type) {
	case string:
		if errs != "" {
			return errs
		}
	case map[string]interface{}:
		if joined := joinErrorEntries(body); joined != "" {
			return joined
		}
	case []interface{}:
		if joined := strings.Join(flatten(errs), ", "); joined != "" {
			return joined
		}
	}
	return MsgUnknownError
}

// joinErrorEntries walks the errors object token by token so that entries keep
// the order the server wrote them in.
func joinErrorEntries(body []byte) string {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return ""
	}
	raw, ok := top["errors"]
	if !ok {
		return ""
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return ""
	}
	var parts []string
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return strings.Join(parts, ", ")
		}
		var val interface{}
		if err := dec.Decode(&val); err != nil {
			return strings.Join(parts, ", ")
		}
		if list, ok := val.([]interface{}); ok {
			parts = append(parts, flatten(list)...)
		} else {
			parts = append(parts, render(val))
		}
	}
	return strings.Join(parts, ", ")
}

func flatten(list []interface{}) []string {
	out := make([]string, 0, len(list))
	for _, item := range list {
		out = append(out, render(item))
	}
	return out
}

func render(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
