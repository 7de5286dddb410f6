package domain

import "testing"

func TestResolveIdentity(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		want  CustomerIdentity
	}{
		{
			name:  "registered_user",
			order: Order{ID: "ord_1", UserID: "user_42"},
			want:  RegisteredIdentity("user_42"),
		},
		{
			name:  "guest_with_email",
			order: Order{ID: "ord_2", IsGuest: true, GuestEmail: "ann@example.com"},
			want:  GuestIdentity("ann@example.com"),
		},
		{
			name:  "guest_email_whitespace_trimmed",
			order: Order{ID: "ord_3", IsGuest: true, GuestEmail: "  bob@example.com "},
			want:  GuestIdentity("bob@example.com"),
		},
		{
			name:  "guest_without_email_falls_back_to_order_id",
			order: Order{ID: "ord_4", IsGuest: true},
			want:  GuestIdentity("ord_4"),
		},
		{
			name:  "guest_blank_email_falls_back_to_order_id",
			order: Order{ID: "ord_5", IsGuest: true, GuestEmail: "   "},
			want:  GuestIdentity("ord_5"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveIdentity(tc.order)
			if got != tc.want {
				t.Fatalf("ResolveIdentity mismatch: want %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestResolveIdentityGuestsWithoutEmailNeverMerge(t *testing.T) {
	a := ResolveIdentity(Order{ID: "ord_a", IsGuest: true})
	b := ResolveIdentity(Order{ID: "ord_b", IsGuest: true})
	if a == b {
		t.Fatalf("expected distinct identities for email-less guests, got %+v", a)
	}
}

func TestCustomerIdentityString(t *testing.T) {
	if got := RegisteredIdentity("user_1").String(); got != "user_1" {
		t.Fatalf("registered key mismatch: %q", got)
	}
	if got := GuestIdentity("ann@example.com").String(); got != "guest-ann@example.com" {
		t.Fatalf("guest key mismatch: %q", got)
	}
	if !GuestIdentity("x").IsGuest() {
		t.Fatal("expected guest identity to report IsGuest")
	}
	if RegisteredIdentity("x").IsGuest() {
		t.Fatal("expected registered identity to not report IsGuest")
	}
}
