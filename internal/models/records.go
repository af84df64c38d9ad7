package models

import (
	"strings"
	"time"
)

// Payment methods accepted by the exam package funnel.
var PaymentMethods = []string{"Zelle", "CashApp"}

// PaymentRecord is the immutable snapshot written once per completed
// transaction. Records are appended to the store and the NDJSON log and
// never mutated or deleted.
type PaymentRecord struct {
	Name          string    `json:"name"`
	Package       string    `json:"package"`
	PaymentMethod string    `json:"payment_method"`
	Amount        string    `json:"amount"`
	Timestamp     time.Time `json:"timestamp"`
}

// MeetingRecord is the retail variant's scheduling snapshot, appended once
// per scheduled meeting.
type MeetingRecord struct {
	Name      string    `json:"name"`
	Brand     string    `json:"brand"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Timestamp time.Time `json:"timestamp"`
}

// PaymentForm carries the structured payment form submission. Unlike the
// extraction pass, a submitted form may overwrite populated client fields;
// that is the explicit user edit path.
type PaymentForm struct {
	Name          string `json:"name"`
	DOB           string `json:"dob"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Package       string `json:"package"`
	PaymentMethod string `json:"payment_method"`
}

// Validate checks the required payment form fields. Package may be empty;
// the engine infers it from the last assistant reply in that case.
func (f *PaymentForm) Validate(validPackages []string) error {
	if f.Name == "" {
		return ErrMissingName
	}
	if f.DOB == "" {
		return ErrMissingDOB
	}
	if f.Package != "" && !containsFold(validPackages, f.Package) {
		return ErrInvalidPackage
	}
	if !containsFold(PaymentMethods, f.PaymentMethod) {
		return ErrInvalidPayMethod
	}
	return nil
}

// MeetingForm carries the retail meeting scheduling form submission.
type MeetingForm struct {
	Name string `json:"name"`
	Date string `json:"date"`
	Time string `json:"time"`
}

// Validate checks the required meeting form fields.
func (f *MeetingForm) Validate() error {
	if f.Name == "" {
		return ErrMissingName
	}
	if f.Date == "" {
		return ErrMissingDate
	}
	if f.Time == "" {
		return ErrMissingTime
	}
	return nil
}

func containsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}
