package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2024, 3, 1), true},
		{NewDate(2024, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(NewDate(2024, 3, 5))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-03-05"` {
		t.Fatalf("got %s", b)
	}

	var d Date
	if err := json.Unmarshal([]byte(`"2024-03-07"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Day() != 7 || d.Time.Month() != time.March {
		t.Fatalf("unexpected date %v", d)
	}
	if err := json.Unmarshal([]byte(`"07/03/2024"`), &d); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Amount: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Amount: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestPaymentStatusToggle(t *testing.T) {
	if StatusUnpaid.Toggle() != StatusPaid {
		t.Fatalf("unpaid should toggle to paid")
	}
	if StatusPaid.Toggle() != StatusUnpaid {
		t.Fatalf("paid should toggle to unpaid")
	}
	for _, s := range []PaymentStatus{StatusPaid, StatusUnpaid} {
		if s.Toggle().Toggle() != s {
			t.Fatalf("double toggle of %v is not identity", s)
		}
	}
}

func TestPaymentStatusText(t *testing.T) {
	cases := []struct {
		in   string
		want PaymentStatus
		ok   bool
	}{
		{"paid", StatusPaid, true},
		{" Unpaid ", StatusUnpaid, true},
		{"PAID", StatusPaid, true},
		{"pending", StatusUnpaid, false},
		{"", StatusUnpaid, false},
	}
	for _, tc := range cases {
		got, err := ParsePaymentStatus(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("%q expected ErrInvalidStatus, got %v", tc.in, err)
		}
	}

	if _, err := PaymentStatus(7).MarshalText(); err == nil {
		t.Fatalf("expected error marshalling out of range status")
	}

	var r struct {
		Status PaymentStatus `json:"status"`
	}
	if err := json.Unmarshal([]byte(`{"status":"paid"}`), &r); err != nil || r.Status != StatusPaid {
		t.Fatalf("unmarshal status: %v %v", r.Status, err)
	}
}
