package domain

import "fmt"

// CheckoutPolicy decides whether a deposit/credit check gates payment.
type CheckoutPolicy string

const (
	// PolicyStrict runs a supplier credit check before any pre-authorization.
	PolicyStrict CheckoutPolicy = "STRICT"
	// PolicyOnHoldPreauth skips the credit check and goes straight to the
	// gateway, accepting settlement risk for lower latency.
	PolicyOnHoldPreauth CheckoutPolicy = "ON_HOLD_PREAUTH"
)

// CheckoutResult is a tagged outcome. A checkout blocked by the credit
// policy is a business outcome, not an error, so it gets its own arm
// instead of an exception-shaped code path.
type CheckoutResult struct {
	Booking *Booking
	Payment *Payment
	// PaymentURL is the gateway's hosted form for completing the hold.
	PaymentURL string

	// Blocked is set when the STRICT policy found the supplier wallet short.
	Blocked bool
	Reason  string
	Deficit float64
}

// Ok reports whether the checkout produced a pre-authorization.
func (r CheckoutResult) Ok() bool { return !r.Blocked }

// SupplierBookingError marks a failed BookingCreation call. The local audit
// write may still have happened; StoredForAudit records that separately.
type SupplierBookingError struct {
	Err            error
	StoredForAudit bool
}

func (e *SupplierBookingError) Error() string {
	return fmt.Sprintf("supplier booking failed: %v (audit row stored: %t)", e.Err, e.StoredForAudit)
}

func (e *SupplierBookingError) Unwrap() error { return e.Err }
