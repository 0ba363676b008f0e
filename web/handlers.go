package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"food-kiosk/models"
	"food-kiosk/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	menu := make(map[string][]models.MenuEntry)
	for _, category := range models.MenuCategories() {
		entries, err := s.catalog.List(r.Context(), category)
		if err != nil {
			s.log.Errorw("list menu failed", "category", category, "error", err)
			s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load menu")
			return
		}
		menu[category] = entries
	}
	s.writeJSON(w, http.StatusOK, menu)
}

func (s *Server) handleMenuCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if !models.ValidCategory(category) {
		s.writeError(w, http.StatusNotFound, "UNKNOWN_CATEGORY", "No such menu category")
		return
	}
	entries, err := s.catalog.List(r.Context(), category)
	if err != nil {
		s.log.Errorw("list menu failed", "category", category, "error", err)
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load menu")
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// orderView is the kiosk screen's session payload: cart, config, derived
// pricing, checkout state and profile.
type orderView struct {
	OrderNumber string                  `json:"order_number"`
	State       models.CheckoutState    `json:"state"`
	TokenNumber string                  `json:"token_number,omitempty"`
	Lines       []models.CartLine       `json:"lines"`
	ItemCount   int                     `json:"item_count"`
	Config      models.OrderConfig      `json:"config"`
	Pricing     pricingView             `json:"pricing"`
	Profile     *models.CustomerProfile `json:"profile,omitempty"`
}

type pricingView struct {
	Subtotal   string `json:"subtotal"`
	Tax        string `json:"tax"`
	ServiceFee string `json:"service_fee"`
	Total      string `json:"total"`
}

func viewOf(sess *services.Session) orderView {
	p := sess.Pricing()
	lines := sess.Cart.Lines
	if lines == nil {
		lines = []models.CartLine{}
	}
	return orderView{
		OrderNumber: sess.OrderNumber,
		State:       sess.State,
		TokenNumber: sess.TokenNumber,
		Lines:       lines,
		ItemCount:   sess.ItemCount(),
		Config:      sess.Config,
		Pricing: pricingView{
			Subtotal:   p.Subtotal.StringFixed(2),
			Tax:        p.Tax.StringFixed(2),
			ServiceFee: p.ServiceFee.StringFixed(2),
			Total:      p.Total.StringFixed(2),
		},
		Profile: sess.Profile,
	}
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)
	s.writeJSON(w, http.StatusOK, viewOf(e.session))
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)

	var payload struct {
		ItemID string `json:"item_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ItemID == "" {
		s.writeError(w, http.StatusBadRequest, "INVALID_INPUT", "item_id is required")
		return
	}

	entry, err := s.catalog.Get(r.Context(), payload.ItemID)
	switch {
	case errors.Is(err, services.ErrUnknownMenuItem):
		s.writeError(w, http.StatusNotFound, "UNKNOWN_ITEM", "No such menu item")
		return
	case err != nil:
		s.log.Errorw("menu lookup failed", "item", payload.ItemID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load menu item")
		return
	}

	e.session.AddItem(r.Context(), *entry)
	s.writeJSON(w, http.StatusOK, viewOf(e.session))
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)
	e.session.RemoveItem(r.Context(), chi.URLParam(r, "itemID"))
	s.writeJSON(w, http.StatusOK, viewOf(e.session))
}

func (s *Server) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)

	var payload struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON payload")
		return
	}

	e.session.SetQuantity(r.Context(), chi.URLParam(r, "itemID"), payload.Quantity)
	s.writeJSON(w, http.StatusOK, viewOf(e.session))
}

func (s *Server) handleOrderConfig(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)

	var payload struct {
		Fulfillment         *string `json:"fulfillment"`
		TableNumber         *string `json:"table_number"`
		SpecialInstructions *string `json:"special_instructions"`
		PaymentMethod       *string `json:"payment_method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON payload")
		return
	}

	ctx := r.Context()
	if payload.Fulfillment != nil {
		if err := e.session.SetFulfillment(ctx, models.Fulfillment(*payload.Fulfillment)); err != nil {
			s.writeError(w, http.StatusBadRequest, "INVALID_INPUT", "fulfillment must be dine_in or takeaway")
			return
		}
	}
	if payload.TableNumber != nil {
		e.session.SetTableNumber(ctx, *payload.TableNumber)
	}
	if payload.SpecialInstructions != nil {
		e.session.SetInstructions(ctx, *payload.SpecialInstructions)
	}
	if payload.PaymentMethod != nil {
		if err := e.session.SetPaymentMethod(ctx, models.PaymentMethod(*payload.PaymentMethod)); err != nil {
			s.writeError(w, http.StatusBadRequest, "INVALID_INPUT", "payment_method must be card or cash")
			return
		}
	}

	s.writeJSON(w, http.StatusOK, viewOf(e.session))
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)

	res, err := e.session.Checkout(r.Context(), s.gateway)
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		s.writeError(w, http.StatusBadRequest, "EMPTY_CART", "Cannot checkout an empty cart")
		return
	case errors.Is(err, services.ErrTableNumberRequired):
		s.writeError(w, http.StatusBadRequest, "TABLE_NUMBER_REQUIRED", "Please enter your table number")
		return
	case errors.Is(err, services.ErrPaymentDeclined):
		s.writeError(w, http.StatusPaymentRequired, "PAYMENT_DECLINED", "Payment was declined")
		return
	case err != nil:
		s.writeError(w, http.StatusBadGateway, "PAYMENT_ERROR", "Failed to initialize payment gateway")
		return
	}

	if res.State == models.StateCashPending {
		s.writeJSON(w, http.StatusOK, map[string]string{
			"state":    string(res.State),
			"redirect": "/cash-payment?amount=" + res.CashAmount,
		})
		return
	}

	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCashPayment(w http.ResponseWriter, r *http.Request) {
	amount := r.URL.Query().Get("amount")
	if amount == "" {
		amount = "0.00"
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"amount": amount})
}

func (s *Server) handleCashConfirm(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)

	// The deferred token-reveal notification outlives the request; it is
	// dropped only if the whole server shuts down first.
	token, err := e.session.ConfirmCashPayment(context.WithoutCancel(r.Context()))
	if errors.Is(err, services.ErrNotAwaitingCash) {
		s.writeError(w, http.StatusConflict, "NOT_CASH_PENDING", "No cash payment is awaiting confirmation")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{
		"state":        string(e.session.State),
		"token_number": token,
	})
}

func (s *Server) handleCashCancel(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)
	e.session.CancelCashPayment(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]string{
		"state":    string(e.session.State),
		"redirect": "/",
	})
}

func (s *Server) handleGenerateToken(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)

	token, err := e.session.GenerateToken(r.Context())
	if errors.Is(err, services.ErrEmptyCart) {
		s.writeError(w, http.StatusBadRequest, "EMPTY_CART", "Add items to your order first")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"token_number": token})
}

func (s *Server) handleAuthPhone(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)

	var payload struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON payload")
		return
	}

	if err := e.login.SubmitPhone(r.Context(), payload.Phone); err != nil {
		if errors.Is(err, services.ErrInvalidPhone) {
			s.writeError(w, http.StatusBadRequest, "INVALID_PHONE", "Please enter a valid 10-digit phone number")
			return
		}
		s.writeError(w, http.StatusBadRequest, "LOGIN_FAILED", "Could not send OTP")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"step": string(e.login.Step())})
}

func (s *Server) handleAuthOTP(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)

	var payload struct {
		OTP string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid JSON payload")
		return
	}

	profile, err := e.login.SubmitOTP(r.Context(), payload.OTP)
	switch {
	case errors.Is(err, services.ErrOTPNotRequested):
		s.writeError(w, http.StatusConflict, "OTP_NOT_REQUESTED", "Submit a phone number first")
		return
	case errors.Is(err, services.ErrInvalidOTP):
		s.writeError(w, http.StatusBadRequest, "INVALID_OTP", "Please enter a valid 4-digit OTP")
		return
	case err != nil:
		s.writeError(w, http.StatusBadRequest, "LOGIN_FAILED", "Could not verify OTP")
		return
	}

	e.session.Login(r.Context(), profile)
	s.writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	e := s.entry(w, r)
	e.session.Logout(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
