// README: Status whitelist tests.
package booking

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPendingPayment, StatusConfirmed, true},
		{StatusPendingPayment, StatusCancelled, true},
		{StatusConfirmed, StatusPickupAssigned, true},
		{StatusPickupAssigned, StatusPickedUp, true},
		{StatusPickedUp, StatusAtWorkshop, true},
		{StatusAtWorkshop, StatusInService, true},
		{StatusInService, StatusReadyForReturn, true},
		{StatusReadyForReturn, StatusReturnAssigned, true},
		{StatusReturnAssigned, StatusInTransitToCustomer, true},
		{StatusInTransitToCustomer, StatusDelivered, true},

		// No skipping stages.
		{StatusPendingPayment, StatusPickupAssigned, false},
		{StatusPickupAssigned, StatusInService, false},
		{StatusConfirmed, StatusDelivered, false},

		// No going backwards.
		{StatusInService, StatusAtWorkshop, false},
		{StatusDelivered, StatusInService, false},

		// Cancellation window closes once service starts.
		{StatusPendingPayment, StatusCancelled, true},
		{StatusAtWorkshop, StatusCancelled, true},
		{StatusInService, StatusCancelled, false},
		{StatusReadyForReturn, StatusCancelled, false},
		{StatusInTransitToCustomer, StatusCancelled, false},

		// Terminal states have no exits.
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusConfirmed, false},
	}

	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusDelivered, StatusCancelled} {
		if !IsTerminal(s) {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []Status{StatusPendingPayment, StatusInService, StatusReturnAssigned} {
		if IsTerminal(s) {
			t.Errorf("expected %s not to be terminal", s)
		}
	}
}
