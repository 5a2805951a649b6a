package domain

import "testing"

func TestOrderStatus_CanTransition(t *testing.T) {
	all := []OrderStatus{StatusPending, StatusAccepted, StatusRejected, StatusDelivered}
	allowed := map[[2]OrderStatus]bool{
		{StatusPending, StatusAccepted}:   true,
		{StatusPending, StatusRejected}:   true,
		{StatusAccepted, StatusDelivered}: true,
	}
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]OrderStatus{from, to}]
			if got := from.CanTransition(to); got != want {
				t.Fatalf("%s -> %s: got %v want %v", from, to, got, want)
			}
		}
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	if StatusPending.Terminal() || StatusAccepted.Terminal() {
		t.Fatalf("pending/accepted must not be terminal")
	}
	if !StatusRejected.Terminal() || !StatusDelivered.Terminal() {
		t.Fatalf("rejected/delivered must be terminal")
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		in   string
		want OrderStatus
		ok   bool
	}{
		{"accept", StatusAccepted, true},
		{"reject", StatusRejected, true},
		{"deliver", StatusDelivered, true},
		{"delivered", StatusDelivered, true},
		{"pending", StatusPending, true},
		{"call", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := ParseStatus(c.in)
		if got != c.want || ok != c.ok {
			t.Fatalf("ParseStatus(%q) = (%q,%v); want (%q,%v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestOrderStatus_Label(t *testing.T) {
	if StatusPending.Label() == "" || OrderStatus("weird").Label() != "weird" {
		t.Fatalf("unexpected labels")
	}
}
