package core

import "testing"

func TestAuthModeConstructors(t *testing.T) {
	roles := []string{"arn:aws:iam::111111111111:role/a"}
	m := AssumeMode(roles)
	roles[0] = "mutated"

	if m.Kind != AuthAssume {
		t.Fatalf("expected assume kind, got %s", m.Kind)
	}
	if m.Roles[0] != "arn:aws:iam::111111111111:role/a" {
		t.Errorf("expected roles to be copied, got %q", m.Roles[0])
	}

	d := DiscoverMode("", "/X")
	if d.Kind != AuthDiscover || d.RootRole != "" || d.SubRolePath != "/X" {
		t.Errorf("unexpected discover mode: %+v", d)
	}

	if LocalMode().String() != "local" {
		t.Errorf("expected local, got %s", LocalMode())
	}
}

func TestSessionSpecAssumes(t *testing.T) {
	if (SessionSpec{Region: "us-east-1"}).Assumes() {
		t.Error("expected ambient session not to assume")
	}
	if !(SessionSpec{RoleARN: "arn:aws:iam::1:role/x"}).Assumes() {
		t.Error("expected role session to assume")
	}
}
