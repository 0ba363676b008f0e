package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"food-kiosk/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrTableNumberRequired = errors.New("table number is required for dine-in")
	ErrNotAwaitingCash     = errors.New("no cash payment pending")
	ErrInvalidFulfillment  = errors.New("invalid fulfillment")
	ErrInvalidPayment      = errors.New("invalid payment method")
)

// Deps are the collaborator ports a session needs. Persistence and
// notifications are injected, never ambient.
type Deps struct {
	Store            SnapshotStore
	Notifier         Notifier
	Log              *zap.SugaredLogger
	TaxRate          decimal.Decimal
	ServiceFee       decimal.Decimal
	Currency         string
	TokenRevealDelay time.Duration
}

// Session is one kiosk order session. It exclusively owns its cart and
// order config; menu entries are shared read-only reference data. All
// mutations happen on the caller's goroutine, there is no internal locking.
type Session struct {
	ID          string
	OrderNumber string
	TokenNumber string
	State       models.CheckoutState
	Cart        models.Cart
	Config      models.OrderConfig
	Profile     *models.CustomerProfile

	deps Deps
}

// sessionSnapshot is the cart-side persisted shape. The profile is stored
// under its own key so the two snapshots stay independent.
type sessionSnapshot struct {
	OrderNumber string               `json:"order_number"`
	State       models.CheckoutState `json:"state"`
	TokenNumber string               `json:"token_number,omitempty"`
	Cart        models.Cart          `json:"cart"`
	Config      models.OrderConfig   `json:"config"`
}

// NewSession creates a session, restoring any persisted cart and profile
// snapshots for the given id. Corrupt snapshots are logged and discarded.
func NewSession(ctx context.Context, id string, deps Deps) *Session {
	s := &Session{
		ID:          id,
		OrderNumber: NewOrderNumber(),
		State:       models.StateBuilding,
		Config: models.OrderConfig{
			Fulfillment:   models.FulfillmentDineIn,
			PaymentMethod: models.PaymentCard,
		},
		deps: deps,
	}

	if data, ok, err := deps.Store.Load(ctx, CartKey(id)); err != nil {
		deps.Log.Errorw("load cart snapshot failed", "session", id, "error", err)
	} else if ok {
		var snap sessionSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			deps.Log.Errorw("corrupt cart snapshot discarded", "session", id, "error", err)
		} else {
			s.OrderNumber = snap.OrderNumber
			s.State = snap.State
			s.TokenNumber = snap.TokenNumber
			s.Cart = snap.Cart
			s.Config = snap.Config
		}
	}

	if data, ok, err := deps.Store.Load(ctx, ProfileKey(id)); err != nil {
		deps.Log.Errorw("load profile snapshot failed", "session", id, "error", err)
	} else if ok {
		var p models.CustomerProfile
		if err := json.Unmarshal(data, &p); err != nil {
			deps.Log.Errorw("corrupt profile snapshot discarded", "session", id, "error", err)
		} else {
			s.Profile = &p
		}
	}

	return s
}

// AddItem puts one unit of the menu entry into the cart, merging with an
// existing line for the same item.
func (s *Session) AddItem(ctx context.Context, e models.MenuEntry) {
	s.Cart.Add(e)
	s.notify(ctx, Notification{
		Title:    "Added to cart",
		Body:     fmt.Sprintf("%s has been added to your cart.", e.Name),
		Severity: SeveritySuccess,
		Duration: 2 * time.Second,
	})
	s.persistCart(ctx)
}

func (s *Session) RemoveItem(ctx context.Context, itemID string) {
	if s.Cart.Remove(itemID) {
		s.notify(ctx, Notification{
			Title:    "Removed from cart",
			Body:     "Item has been removed from your cart.",
			Severity: SeverityInfo,
			Duration: 2 * time.Second,
		})
	}
	s.persistCart(ctx)
}

func (s *Session) SetQuantity(ctx context.Context, itemID string, quantity int) {
	s.Cart.SetQuantity(itemID, quantity)
	s.persistCart(ctx)
}

func (s *Session) ItemCount() int {
	return s.Cart.ItemCount()
}

// Pricing recomputes the summary from the current cart. Repeated reads
// without mutation return identical values.
func (s *Session) Pricing() models.PricingSummary {
	return models.Summarize(&s.Cart, s.deps.TaxRate, s.deps.ServiceFee)
}

func (s *Session) SetFulfillment(ctx context.Context, f models.Fulfillment) error {
	if !models.ValidFulfillment(f) {
		return fmt.Errorf("%w: %q", ErrInvalidFulfillment, f)
	}
	// Switching away from dine-in keeps the table number; it is ignored
	// while takeaway is active.
	s.Config.Fulfillment = f
	s.persistCart(ctx)
	return nil
}

func (s *Session) SetTableNumber(ctx context.Context, n string) {
	s.Config.TableNumber = strings.TrimSpace(n)
	s.persistCart(ctx)
}

func (s *Session) SetInstructions(ctx context.Context, text string) {
	s.Config.SpecialInstructions = text
	s.persistCart(ctx)
}

func (s *Session) SetPaymentMethod(ctx context.Context, m models.PaymentMethod) error {
	if !models.ValidPaymentMethod(m) {
		return fmt.Errorf("%w: %q", ErrInvalidPayment, m)
	}
	s.Config.PaymentMethod = m
	s.persistCart(ctx)
	return nil
}

// CheckoutResult reports where the checkout landed: token issued directly
// (card), or a redirect to the cash desk carrying the amount to collect.
type CheckoutResult struct {
	State         models.CheckoutState `json:"state"`
	TokenNumber   string               `json:"token_number,omitempty"`
	TransactionID string               `json:"transaction_id,omitempty"`
	CashAmount    string               `json:"cash_amount,omitempty"`
}

// Checkout runs the payment flow for the configured method. Validation
// failures leave the session exactly as it was.
func (s *Session) Checkout(ctx context.Context, gw Gateway) (*CheckoutResult, error) {
	if err := s.validateCheckout(ctx); err != nil {
		return nil, err
	}

	if s.State == models.StateTokenIssued || s.State == models.StateCashPending {
		// A new payment attempt starts a fresh cycle; an abandoned cash
		// confirmation falls back the same way a cancel does.
		s.State = models.StateBuilding
	}
	s.State = models.StateAwaitingPayment

	pricing := s.Pricing()

	if s.Config.PaymentMethod == models.PaymentCash {
		s.State = models.StateCashPending
		s.persistCart(ctx)
		return &CheckoutResult{
			State:      s.State,
			CashAmount: pricing.Total.StringFixed(2),
		}, nil
	}

	res, err := gw.Open(ctx, PaymentRequest{
		AmountMinor: pricing.TotalMinorUnits(),
		Currency:    s.deps.Currency,
		Description: "Order Payment",
		Prefill:     PrefillFor(s.Profile),
	})
	if err != nil {
		s.State = models.StateBuilding
		s.persistCart(ctx)
		s.notify(ctx, Notification{
			Title:    "Payment Error",
			Body:     "Failed to initialize payment gateway",
			Severity: SeverityError,
			Duration: 5 * time.Second,
		})
		return nil, err
	}

	token, err := s.CompleteCardPayment(ctx, res.TransactionID)
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{
		State:         s.State,
		TokenNumber:   token,
		TransactionID: res.TransactionID,
	}, nil
}

// CompleteCardPayment is the gateway's success callback: it carries the
// opaque transaction id, moves the session to paid and immediately issues
// the pickup token.
func (s *Session) CompleteCardPayment(ctx context.Context, transactionID string) (string, error) {
	if !models.ValidStateTransition(s.State, models.StatePaid) {
		return "", fmt.Errorf("cannot complete card payment from state %q", s.State)
	}
	s.State = models.StatePaid
	s.notify(ctx, Notification{
		Title:    "Payment Successful!",
		Body:     fmt.Sprintf("Payment ID: %s", transactionID),
		Severity: SeveritySuccess,
		Duration: 5 * time.Second,
	})

	token := s.issueToken(ctx)
	s.State = models.StateTokenIssued
	s.persistCart(ctx)
	return token, nil
}

// ConfirmCashPayment is the manual confirmation step at the cash desk. The
// token-reveal notification fires after a short delay; if ctx is cancelled
// before then (the confirmation view was dismissed) it is dropped silently.
func (s *Session) ConfirmCashPayment(ctx context.Context) (string, error) {
	if s.State != models.StateCashPending {
		return "", ErrNotAwaitingCash
	}
	s.notify(ctx, Notification{
		Title:    "Payment Confirmed",
		Body:     "Cash payment has been confirmed",
		Severity: SeveritySuccess,
		Duration: 3 * time.Second,
	})

	token := NewTokenNumber()
	s.TokenNumber = token
	s.State = models.StateTokenIssued
	s.persistCart(ctx)

	go func() {
		select {
		case <-ctx.Done():
		case <-time.After(s.deps.TokenRevealDelay):
			s.notify(ctx, Notification{
				Title:    "Token Generated",
				Body:     fmt.Sprintf("Token number: %s", token),
				Severity: SeverityInfo,
				Duration: 5 * time.Second,
			})
		}
	}()

	return token, nil
}

// CancelCashPayment returns the customer to the entry point. No cleanup
// guarantees: the cart and config are left as they were.
func (s *Session) CancelCashPayment(ctx context.Context) {
	if s.State == models.StateCashPending {
		s.State = models.StateBuilding
		s.persistCart(ctx)
	}
}

// GenerateToken is the independent "take a token without paying"
// affordance. It requires a non-empty cart and does not alter the payment
// state, it only sets the token number.
func (s *Session) GenerateToken(ctx context.Context) (string, error) {
	if s.Cart.IsEmpty() {
		return "", ErrEmptyCart
	}
	token := s.issueToken(ctx)
	s.persistCart(ctx)
	return token, nil
}

func (s *Session) issueToken(ctx context.Context) string {
	token := NewTokenNumber()
	s.TokenNumber = token
	s.notify(ctx, Notification{
		Title:    "Token Generated",
		Body:     fmt.Sprintf("Your token number is %s", token),
		Severity: SeverityInfo,
		Duration: 5 * time.Second,
	})
	return token
}

// Login stores the customer profile produced by the OTP flow.
func (s *Session) Login(ctx context.Context, p *models.CustomerProfile) {
	s.Profile = p
	s.persistProfile(ctx)
	s.notify(ctx, Notification{
		Title:    "Login Successful",
		Body:     "Welcome back!",
		Severity: SeveritySuccess,
		Duration: 3 * time.Second,
	})
}

func (s *Session) Logout(ctx context.Context) {
	s.Profile = nil
	if err := s.deps.Store.Delete(ctx, ProfileKey(s.ID)); err != nil {
		s.deps.Log.Errorw("delete profile snapshot failed", "session", s.ID, "error", err)
	}
	s.notify(ctx, Notification{
		Title:    "Logged Out",
		Body:     "You have been logged out successfully",
		Severity: SeverityInfo,
		Duration: 3 * time.Second,
	})
}

// validateCheckout enforces the only hard preconditions on proceeding to
// payment: a non-empty cart, and a table number for dine-in.
func (s *Session) validateCheckout(ctx context.Context) error {
	if s.Cart.IsEmpty() {
		s.notify(ctx, Notification{
			Title:    "Cart is empty",
			Body:     "Add items to your order before paying",
			Severity: SeverityError,
			Duration: 3 * time.Second,
		})
		return ErrEmptyCart
	}
	if s.Config.Fulfillment == models.FulfillmentDineIn && strings.TrimSpace(s.Config.TableNumber) == "" {
		s.notify(ctx, Notification{
			Title:    "Table number required",
			Body:     "Please enter your table number",
			Severity: SeverityError,
			Duration: 3 * time.Second,
		})
		return ErrTableNumberRequired
	}
	return nil
}

func (s *Session) notify(ctx context.Context, n Notification) {
	if s.deps.Notifier != nil {
		s.deps.Notifier.Notify(ctx, n)
	}
}

// persistCart snapshots the cart side of the session. Fire-and-forget:
// failures are logged, never surfaced to the customer.
func (s *Session) persistCart(ctx context.Context) {
	snap := sessionSnapshot{
		OrderNumber: s.OrderNumber,
		State:       s.State,
		TokenNumber: s.TokenNumber,
		Cart:        s.Cart,
		Config:      s.Config,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		s.deps.Log.Errorw("marshal cart snapshot failed", "session", s.ID, "error", err)
		return
	}
	if err := s.deps.Store.Save(ctx, CartKey(s.ID), data); err != nil {
		s.deps.Log.Errorw("save cart snapshot failed", "session", s.ID, "error", err)
	}
}

func (s *Session) persistProfile(ctx context.Context) {
	if s.Profile == nil {
		return
	}
	data, err := json.Marshal(s.Profile)
	if err != nil {
		s.deps.Log.Errorw("marshal profile snapshot failed", "session", s.ID, "error", err)
		return
	}
	if err := s.deps.Store.Save(ctx, ProfileKey(s.ID), data); err != nil {
		s.deps.Log.Errorw("save profile snapshot failed", "session", s.ID, "error", err)
	}
}
