package sales

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	msgProduct     = "Product name must be at least 2 characters."
	msgCustomer    = "Customer name must be at least 2 characters."
	msgAmount      = "Amount must be a positive number."
	msgDateMissing = "A date is required."
	msgDateInvalid = "Date must be a valid ISO-8601 date."

	minNameLength = 2

	// DateLayout is the calendar-day layout accepted for dates and filter bounds.
	DateLayout = "2006-01-02"
)

// FlexString accepts either a JSON string or a JSON number, keeping the raw text.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	*f = FlexString(data)
	return nil
}

// RawSale is untrusted input as submitted by a form or JSON client.
type RawSale struct {
	Product  string     `json:"product" form:"product"`
	Customer string     `json:"customer" form:"customer"`
	Amount   FlexString `json:"amount" form:"amount"`
	Date     string     `json:"date" form:"date"`
}

// ValidationError is a single rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors carries every field violation found in one input.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "invalid sale: " + strings.Join(parts, "; ")
}

// Has reports whether the given field was rejected.
func (v ValidationErrors) Has(field string) bool {
	for _, e := range v {
		if e.Field == field {
			return true
		}
	}
	return false
}

var validate = validator.New()

// ValidateRaw converts untrusted input into a Candidate.
// Every violation is reported, not just the first one.
func ValidateRaw(raw RawSale) (Candidate, error) {
	var errs ValidationErrors

	if utf8.RuneCountInString(raw.Product) < minNameLength {
		errs = append(errs, ValidationError{Field: "product", Message: msgProduct})
	}
	if utf8.RuneCountInString(raw.Customer) < minNameLength {
		errs = append(errs, ValidationError{Field: "customer", Message: msgCustomer})
	}

	amount, ok := parseAmount(string(raw.Amount))
	if !ok {
		errs = append(errs, ValidationError{Field: "amount", Message: msgAmount})
	}

	var date time.Time
	if strings.TrimSpace(raw.Date) == "" {
		errs = append(errs, ValidationError{Field: "date", Message: msgDateMissing})
	} else if d, err := ParseDate(raw.Date, time.UTC); err != nil {
		errs = append(errs, ValidationError{Field: "date", Message: msgDateInvalid})
	} else {
		date = d
	}

	if len(errs) > 0 {
		return Candidate{}, errs
	}
	return Candidate{
		Product:  raw.Product,
		Customer: raw.Customer,
		Amount:   amount,
		Date:     date,
	}, nil
}

// ValidateCandidate re-checks an already typed candidate right before it is persisted.
func ValidateCandidate(c Candidate) error {
	var errs ValidationErrors

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			switch fe.Field() {
			case "Product":
				errs = append(errs, ValidationError{Field: "product", Message: msgProduct})
			case "Customer":
				errs = append(errs, ValidationError{Field: "customer", Message: msgCustomer})
			case "Amount":
				errs = append(errs, ValidationError{Field: "amount", Message: msgAmount})
			}
		}
	}
	if !isFinite(c.Amount) && !errs.Has("amount") {
		errs = append(errs, ValidationError{Field: "amount", Message: msgAmount})
	}
	if c.Date.IsZero() {
		errs = append(errs, ValidationError{Field: "date", Message: msgDateMissing})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ParseDate accepts an RFC 3339 timestamp or a YYYY-MM-DD calendar day.
// Calendar days are placed at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

func parseAmount(s string) (float64, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return 0, false
	}
	f := d.InexactFloat64()
	if !isFinite(f) || f <= 0 {
		return 0, false
	}
	return f, true
}

// isFinite rejects amounts outside the float64 range, which cannot be summed or encoded.
func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
