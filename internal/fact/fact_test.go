package fact

import (
	"strings"
	"testing"
	"time"
)

func validFact() *Fact {
	return &Fact{
		Type:               TypeDecision,
		Summary:            "switch to cable railing on the upper deck",
		Priority:           PriorityNormal,
		AuthorRole:         RoleUser,
		VerificationStatus: VerificationPending,
	}
}

func TestNormalizeDefaults(t *testing.T) {
	f := &Fact{Type: TypeTask, Summary: "order joist hangers"}
	f.Normalize()

	if f.Priority != PriorityNormal {
		t.Errorf("Priority = %q, want normal", f.Priority)
	}
	if f.AuthorRole != RoleSystem {
		t.Errorf("AuthorRole = %q, want system", f.AuthorRole)
	}
	if f.VerificationStatus != VerificationPending {
		t.Errorf("VerificationStatus = %q, want pending_approval", f.VerificationStatus)
	}
}

func TestNormalizeCurrency(t *testing.T) {
	amount := 1200.0
	f := validFact()
	f.FinancialAmount = &amount
	f.Normalize()

	if f.Currency != DefaultCurrency {
		t.Errorf("Currency = %q, want %q", f.Currency, DefaultCurrency)
	}

	f2 := validFact()
	f2.FinancialAmount = &amount
	f2.Currency = "EUR"
	f2.Normalize()
	if f2.Currency != "EUR" {
		t.Errorf("explicit currency overwritten: %q", f2.Currency)
	}
}

func TestNormalizeClampsConfidence(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
	}

	for _, tt := range tests {
		f := validFact()
		c := tt.in
		f.Confidence = &c
		f.Normalize()
		if *f.Confidence != tt.want {
			t.Errorf("Normalize() confidence %v = %v, want %v", tt.in, *f.Confidence, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	amount := 100.0
	ft := FinancialQuote
	badFT := FinancialType("tip")

	tests := []struct {
		name    string
		mutate  func(*Fact)
		wantErr bool
	}{
		{"valid", func(*Fact) {}, false},
		{"empty summary", func(f *Fact) { f.Summary = "" }, true},
		{"summary too long", func(f *Fact) { f.Summary = strings.Repeat("x", MaxSummaryLength+1) }, true},
		{"bad type", func(f *Fact) { f.Type = "gossip" }, true},
		{"bad priority", func(f *Fact) { f.Priority = "urgent" }, true},
		{"bad role", func(f *Fact) { f.AuthorRole = "intern" }, true},
		{"bad status", func(f *Fact) { f.VerificationStatus = "maybe" }, true},
		{"amount without type", func(f *Fact) { f.FinancialAmount = &amount }, true},
		{"amount with type", func(f *Fact) { f.FinancialAmount = &amount; f.FinancialType = &ft }, false},
		{"bad financial type", func(f *Fact) { f.FinancialType = &badFT }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFact()
			tt.mutate(f)
			err := f.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	f := validFact()
	if f.Expired(now) {
		t.Error("fact without ValidUntil reported expired")
	}

	f.ValidUntil = &future
	if f.Expired(now) {
		t.Error("future ValidUntil reported expired")
	}

	f.ValidUntil = &past
	if !f.Expired(now) {
		t.Error("past ValidUntil not reported expired")
	}
}

func TestAllTypesValid(t *testing.T) {
	for _, typ := range AllTypes() {
		if !typ.Valid() {
			t.Errorf("AllTypes() contains invalid type %q", typ)
		}
	}
	if len(AllTypes()) != 8 {
		t.Errorf("AllTypes() length = %d, want 8", len(AllTypes()))
	}
}
