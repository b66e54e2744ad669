package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"ecobank/internal/core"
)

const maxBodyBytes = 64 << 10

// loginRequest carries no length limits: accounts created outside HTTP may
// exceed them and must still be able to log in.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username" validate:"max=64"`
	Password string `json:"password" validate:"max=256"`
}

type transactionRequest struct {
	Type        string     `json:"type" validate:"required"`
	Amount      AmountJSON `json:"amount"`
	Description string     `json:"description" validate:"max=500"`
}

// AmountJSON accepts a JSON number or a string such as "12,50" or "$12.50".
// Strings are parsed with core.ParseAmount; range checks are left to the
// ledger so both forms are rejected the same way.
type AmountJSON struct {
	Value float64
	Set   bool
}

func (a *AmountJSON) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := core.ParseAmount(s)
		if err != nil {
			return err
		}
		a.Value, a.Set = v, true
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return core.ErrInvalidAmount
	}
	a.Value, a.Set = f, true
	return nil
}

// errBadRequest marks a body that is not the JSON object we expect.
var errBadRequest = errors.New("malformed request body")

// RequestDecoder reads JSON request bodies and checks struct tags.
type RequestDecoder struct {
	validate *validator.Validate
}

func NewRequestDecoder() *RequestDecoder {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestDecoder{validate: v}
}

// Decode fills dst from r's body. It returns a *FieldErrors when tags fail,
// a validation sentinel from core when a field could not be parsed, or
// errBadRequest for anything else.
func (d *RequestDecoder) Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.Is(err, core.ErrValidation) || errors.As(err, &tooLarge) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errBadRequest)
	}

	if err := d.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return newFieldErrors(verrs)
		}
		return err
	}
	return nil
}

// FieldErrors lists the request fields that failed their tags.
type FieldErrors struct {
	Fields map[string]string
}

func (e *FieldErrors) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return "invalid fields: " + strings.Join(parts, "; ")
}

func newFieldErrors(verrs validator.ValidationErrors) *FieldErrors {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "is required"
		case "max":
			fields[fe.Field()] = "must be at most " + fe.Param() + " characters"
		default:
			fields[fe.Field()] = "failed " + fe.Tag()
		}
	}
	return &FieldErrors{Fields: fields}
}

// writeDecodeError answers a failed Decode.
func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *FieldErrors
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.As(err, &fe):
		writeValidationError(w, "invalid request", fe.Fields)
	case errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, "invalid JSON")
	default:
		writeServiceError(w, r, err)
	}
}
