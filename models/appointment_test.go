package models

import (
	"errors"
	"testing"
	"time"
)

func TestRecurringPatternValidate(t *testing.T) {
	tests := []struct {
		name    string
		pattern RecurringPattern
		wantErr bool
	}{
		{"daily min count", RecurringPattern{Frequency: FrequencyDaily, Count: 1}, false},
		{"weekly mid count", RecurringPattern{Frequency: FrequencyWeekly, Count: 10}, false},
		{"monthly max count", RecurringPattern{Frequency: FrequencyMonthly, Count: 52}, false},
		{"zero count", RecurringPattern{Frequency: FrequencyDaily, Count: 0}, true},
		{"count above max", RecurringPattern{Frequency: FrequencyDaily, Count: 53}, true},
		{"negative count", RecurringPattern{Frequency: FrequencyWeekly, Count: -1}, true},
		{"unknown frequency", RecurringPattern{Frequency: "yearly", Count: 5}, true},
		{"empty frequency", RecurringPattern{Count: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pattern.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPattern) {
					t.Errorf("Validate() = %v, want ErrInvalidPattern", err)
				}
			} else if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestRecurringPatternStep(t *testing.T) {
	tests := []struct {
		frequency Frequency
		want      time.Duration
	}{
		{FrequencyDaily, 24 * time.Hour},
		{FrequencyWeekly, 7 * 24 * time.Hour},
		{FrequencyMonthly, 30 * 24 * time.Hour},
	}

	for _, tt := range tests {
		p := RecurringPattern{Frequency: tt.frequency, Count: 1}
		if got := p.Step(); got != tt.want {
			t.Errorf("Step(%s) = %v, want %v", tt.frequency, got, tt.want)
		}
	}
}

func TestCountsAsConflict(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{AppointmentStatusScheduled, true},
		{AppointmentStatusCompleted, true},
		{AppointmentStatusCancelled, false},
		{AppointmentStatusNoShow, false},
	}

	for _, tt := range tests {
		a := Appointment{Status: tt.status}
		if got := a.CountsAsConflict(); got != tt.want {
			t.Errorf("CountsAsConflict(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestClientName(t *testing.T) {
	a := Appointment{Client: &Client{Name: "John Doe"}}
	if got := a.ClientName(); got != "John Doe" {
		t.Errorf("ClientName() = %q, want %q", got, "John Doe")
	}

	orphan := Appointment{}
	if got := orphan.ClientName(); got != "Unknown" {
		t.Errorf("ClientName() without client = %q, want %q", got, "Unknown")
	}
}

func TestRecurringPatternScan(t *testing.T) {
	var p RecurringPattern
	if err := p.Scan([]byte(`{"frequency":"weekly","count":4}`)); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if p.Frequency != FrequencyWeekly || p.Count != 4 {
		t.Errorf("Scan() = %+v, want weekly/4", p)
	}

	if err := p.Scan(42); err == nil {
		t.Error("Scan(int) expected error, got nil")
	}
}
