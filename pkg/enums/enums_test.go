package enums

import "testing"

func TestParsePaymentMethodIgnoresCase(t *testing.T) {
	got, err := ParsePaymentMethod(" CREDIT_CARD ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != PaymentMethodCreditCard {
		t.Fatalf("expected credit_card, got %s", got)
	}
	if _, err := ParsePaymentMethod("barter"); err == nil {
		t.Fatal("expected unknown method to fail")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, status := range validOrderStatuses {
		want := status == OrderStatusCompleted || status == OrderStatusCancelled
		if status.IsTerminal() != want {
			t.Fatalf("status %s terminal=%v", status, status.IsTerminal())
		}
	}
	if _, err := ParseOrderStatus("PENDING"); err != nil {
		t.Fatalf("expected upper-case status to parse: %v", err)
	}
}

func TestRoleAndCategoryValidity(t *testing.T) {
	if !RoleAdmin.IsValid() || Role("owner").IsValid() {
		t.Fatal("unexpected role validity")
	}
	if _, err := ParseProductCategory("speaker"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ProductCategory("turntable").IsValid() {
		t.Fatal("unexpected category validity")
	}
}
