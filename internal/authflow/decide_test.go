package authflow

import (
	"testing"

	"github.com/example/tumar/internal/models"
)

func TestDecideLookup_BranchTable(t *testing.T) {
	registered := &models.Customer{Phone: "77771234567", Password: "hash"}
	pending := &models.Customer{Phone: "77771234567"}

	cases := []struct {
		name     string
		mode     Mode
		customer *models.Customer
		wantMsg  string
	}{
		{"register free phone", ModeRegister, nil, ""},
		{"register pending row", ModeRegister, pending, ""},
		{"register taken phone", ModeRegister, registered, MsgPhoneTaken},
		{"login known phone", ModeLogin, registered, ""},
		{"login unknown phone", ModeLogin, nil, MsgAccountNotFound},
		{"login pending row", ModeLogin, pending, MsgAccountNotFound},
	}
	for _, tc := range cases {
		failure := DecideLookup(tc.mode, tc.customer)
		if tc.wantMsg == "" {
			if failure != nil {
				t.Errorf("%s: expected advance, got %v", tc.name, failure)
			}
			continue
		}
		if failure == nil || failure.Message != tc.wantMsg {
			t.Errorf("%s: expected %q, got %v", tc.name, tc.wantMsg, failure)
		}
	}
}

func TestDecidePassword_BanWinsOverCorrectPassword(t *testing.T) {
	verify := func(hash, password string) bool { return hash == password }
	banned := &models.Customer{Password: "secret", IsBanned: true}

	failure := DecidePassword(banned, verify, "secret")
	if failure == nil || failure.Message != MsgAccountBlocked {
		t.Fatalf("expected %q, got %v", MsgAccountBlocked, failure)
	}

	active := &models.Customer{Password: "secret"}
	if failure := DecidePassword(active, verify, "nope"); failure == nil || failure.Message != MsgWrongPassword {
		t.Fatalf("expected %q, got %v", MsgWrongPassword, failure)
	}
	if failure := DecidePassword(active, verify, "secret"); failure != nil {
		t.Fatalf("expected success, got %v", failure)
	}
}

func TestValidCodeEntry(t *testing.T) {
	valid := []string{"0000", "4321"}
	invalid := []string{"", "43", "43210", "12a4", "4 21", "４３２１"}

	for _, code := range valid {
		if !ValidCodeEntry(code) {
			t.Errorf("expected %q to be valid", code)
		}
	}
	for _, code := range invalid {
		if ValidCodeEntry(code) {
			t.Errorf("expected %q to be invalid", code)
		}
	}
}
