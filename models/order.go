package models

// Fulfillment is the dine-in vs. takeaway order mode.
type Fulfillment string

const (
	FulfillmentDineIn   Fulfillment = "dine_in"
	FulfillmentTakeaway Fulfillment = "takeaway"
)

func ValidFulfillment(f Fulfillment) bool {
	return f == FulfillmentDineIn || f == FulfillmentTakeaway
}

type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	return m == PaymentCard || m == PaymentCash
}

// OrderConfig is how the order is fulfilled and paid. TableNumber is only
// meaningful for dine-in; switching to takeaway keeps a previously entered
// table number around, it is simply ignored while inactive.
type OrderConfig struct {
	Fulfillment         Fulfillment   `json:"fulfillment"`
	TableNumber         string        `json:"table_number"`
	SpecialInstructions string        `json:"special_instructions"`
	PaymentMethod       PaymentMethod `json:"payment_method"`
}

// CheckoutState tracks the linear checkout flow:
// building -> awaiting_payment -> (paid | cash_pending) -> token_issued.
type CheckoutState string

const (
	StateBuilding        CheckoutState = "building"
	StateAwaitingPayment CheckoutState = "awaiting_payment"
	StatePaid            CheckoutState = "paid"
	StateCashPending     CheckoutState = "cash_pending"
	StateTokenIssued     CheckoutState = "token_issued"
)

// ValidStateTransition reports whether moving from one checkout state to
// another is allowed. Falling back to building is allowed from
// awaiting_payment (card popup failed to open) and cash_pending (customer
// cancelled at the cash desk).
func ValidStateTransition(from, to CheckoutState) bool {
	switch from {
	case StateBuilding:
		return to == StateAwaitingPayment
	case StateAwaitingPayment:
		return to == StatePaid || to == StateCashPending || to == StateBuilding
	case StatePaid:
		return to == StateTokenIssued
	case StateCashPending:
		return to == StateTokenIssued || to == StateBuilding
	case StateTokenIssued:
		// A fresh payment attempt on the same session starts over.
		return to == StateBuilding
	default:
		return false
	}
}
