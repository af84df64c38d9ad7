package models

import (
	"errors"
	"testing"
)

func TestParseStage(t *testing.T) {
	tests := []struct {
		label  string
		want   ConversationStage
		wantOK bool
	}{
		{"PackageOffer", StagePackageOffer, true},
		{"package_offer", StagePackageOffer, true},
		{"  ExamScheduling.", StageExamScheduling, true},
		{"initialgreeting", StageInitialGreeting, true},
		{"Other", "", false},
		{"not a stage", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseStage(tt.label)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseStage(%q) = %v, %v; want %v, %v", tt.label, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestStageLabelsRoundTrip(t *testing.T) {
	for _, stage := range Stages {
		got, ok := ParseStage(stage.Label())
		if !ok || got != stage {
			t.Errorf("ParseStage(Label(%v)) = %v, %v; want the same stage", stage, got, ok)
		}
	}
}

func TestIsValidStage(t *testing.T) {
	if !IsValidStage(StagePaymentDetails) {
		t.Error("IsValidStage(payment_details) = false")
	}
	if IsValidStage("made_up_stage") {
		t.Error("IsValidStage(made_up_stage) = true")
	}
}

func TestHasPaymentPrereqs(t *testing.T) {
	full := ClientInfo{Name: "Jordan", DOB: "1999-04-12", Package: "Premium", PaymentMethod: "Zelle"}
	if !full.HasPaymentPrereqs() {
		t.Error("HasPaymentPrereqs = false with all fields set")
	}

	for _, mutate := range []func(*ClientInfo){
		func(c *ClientInfo) { c.Name = "" },
		func(c *ClientInfo) { c.DOB = "" },
		func(c *ClientInfo) { c.Package = "" },
		func(c *ClientInfo) { c.PaymentMethod = "" },
	} {
		c := full
		mutate(&c)
		if c.HasPaymentPrereqs() {
			t.Errorf("HasPaymentPrereqs = true with a missing field: %+v", c)
		}
	}
}

func TestClientInfoSummary(t *testing.T) {
	var empty ClientInfo
	if got := empty.Summary(); got != "" {
		t.Errorf("Summary of empty info = %q, want empty", got)
	}

	info := ClientInfo{State: "Texas", Purpose: "job"}
	want := "state=Texas, purpose=job"
	if got := info.Summary(); got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}

func TestPaymentFormValidate(t *testing.T) {
	packages := []string{"Enterprise", "Premium", "Standard"}

	tests := []struct {
		name string
		form PaymentForm
		want error
	}{
		{"valid", PaymentForm{Name: "Jordan", DOB: "1999-04-12", Package: "Premium", PaymentMethod: "Zelle"}, nil},
		{"empty package allowed", PaymentForm{Name: "Jordan", DOB: "1999-04-12", PaymentMethod: "CashApp"}, nil},
		{"case-insensitive method", PaymentForm{Name: "Jordan", DOB: "1999-04-12", Package: "standard", PaymentMethod: "cashapp"}, nil},
		{"missing name", PaymentForm{DOB: "1999-04-12", PaymentMethod: "Zelle"}, ErrMissingName},
		{"missing dob", PaymentForm{Name: "Jordan", PaymentMethod: "Zelle"}, ErrMissingDOB},
		{"unknown package", PaymentForm{Name: "Jordan", DOB: "1999-04-12", Package: "Deluxe", PaymentMethod: "Zelle"}, ErrInvalidPackage},
		{"unknown method", PaymentForm{Name: "Jordan", DOB: "1999-04-12", Package: "Premium", PaymentMethod: "Venmo"}, ErrInvalidPayMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate(packages)
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestMeetingFormValidate(t *testing.T) {
	valid := MeetingForm{Name: "Sam", Date: "2026-09-15", Time: "14:00"}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate of valid form = %v", err)
	}

	tests := []struct {
		name string
		form MeetingForm
		want error
	}{
		{"missing name", MeetingForm{Date: "2026-09-15", Time: "14:00"}, ErrMissingName},
		{"missing date", MeetingForm{Name: "Sam", Time: "14:00"}, ErrMissingDate},
		{"missing time", MeetingForm{Name: "Sam", Date: "2026-09-15"}, ErrMissingTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.form.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAppendTurn(t *testing.T) {
	var s Session
	s.AppendTurn(RoleUser, "hello")
	s.AppendTurn(RoleAssistant, "hi there")

	if len(s.History) != 2 {
		t.Fatalf("History length = %d, want 2", len(s.History))
	}
	if s.History[0].Role != RoleUser || s.History[1].Role != RoleAssistant {
		t.Errorf("roles = %q, %q; want user, assistant", s.History[0].Role, s.History[1].Role)
	}
	if s.History[0].Timestamp.IsZero() {
		t.Error("turn timestamp not stamped")
	}
}

func TestIsMeetingStage(t *testing.T) {
	tests := []struct {
		name    string
		variant Variant
		history []Turn
		want    bool
	}{
		{
			"retail reply suggesting a call",
			VariantRetail,
			[]Turn{{Role: RoleAssistant, Content: "Want me to set up a Call with a specialist?"}},
			true,
		},
		{
			"retail reply suggesting scheduling",
			VariantRetail,
			[]Turn{{Role: RoleAssistant, Content: "We could schedule a demo this week."}},
			true,
		},
		{
			"only the latest assistant reply counts",
			VariantRetail,
			[]Turn{
				{Role: RoleAssistant, Content: "Shall we schedule a call?"},
				{Role: RoleUser, Content: "not yet"},
				{Role: RoleAssistant, Content: "No problem, take your time."},
			},
			false,
		},
		{
			"user turn does not trigger",
			VariantRetail,
			[]Turn{
				{Role: RoleAssistant, Content: "It has a great camera."},
				{Role: RoleUser, Content: "can we schedule a call?"},
			},
			false,
		},
		{
			"exam variant never triggers",
			VariantGED,
			[]Turn{{Role: RoleAssistant, Content: "Let's schedule your exam."}},
			false,
		},
		{
			"empty history",
			VariantRetail,
			nil,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{Variant: tt.variant, History: tt.history}
			if got := s.IsMeetingStage(); got != tt.want {
				t.Errorf("IsMeetingStage = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsPaymentStage(t *testing.T) {
	s := Session{Stage: StagePaymentDetails}
	if !s.IsPaymentStage() {
		t.Error("IsPaymentStage = false at payment_details")
	}
	s.Stage = StageBasicInfo
	if s.IsPaymentStage() {
		t.Error("IsPaymentStage = true at basic_info")
	}
}
