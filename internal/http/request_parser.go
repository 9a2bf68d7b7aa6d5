package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expenses/internal/core"
)

// maxBodyBytes bounds create and update payloads.
const maxBodyBytes = 64 << 10

// RequestBodyParser reads an expense payload sent either as JSON or as
// form-encoded data.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the body once; Parse decides the encoding.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse treats a body starting with '{' as JSON and anything else as a
// form. Numbers keep their exact text so amounts are not rounded.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = &core.ValidationError{Field: "body", Err: errors.New("malformed JSON")}
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	if p.err != nil {
		p.err = &core.ValidationError{Field: "body", Err: errors.New("malformed form data")}
	}
	return p.err
}

// Get returns the trimmed value of key from whichever encoding was sent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// expenseInput is the field set shared by create and update.
type expenseInput struct {
	Date, Amount, Category, Note string
}

func (p *RequestBodyParser) expense() expenseInput {
	return expenseInput{
		Date:     p.Get("date"),
		Amount:   p.Get("amount"),
		Category: p.Get("category"),
		Note:     p.Get("note"),
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
