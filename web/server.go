package web

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"food-kiosk/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const sessionCookie = "kiosk_session"

// Server is the kiosk HTTP surface. Each kiosk browser session maps to one
// order session plus one login flow, keyed by a session cookie.
type Server struct {
	log     *zap.SugaredLogger
	catalog services.Catalog
	gateway services.Gateway
	deps    services.Deps

	otpSendDelay   time.Duration
	otpVerifyDelay time.Duration

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// sessionEntry pairs the order session with its login flow. A kiosk browser
// issues one request at a time, so methods on a given entry run sequentially;
// Session itself has no internal locking.
type sessionEntry struct {
	session *services.Session
	login   *services.LoginFlow
}

func NewServer(log *zap.SugaredLogger, catalog services.Catalog, gateway services.Gateway, deps services.Deps, otpSendDelay, otpVerifyDelay time.Duration) *Server {
	return &Server{
		log:            log,
		catalog:        catalog,
		gateway:        gateway,
		deps:           deps,
		otpSendDelay:   otpSendDelay,
		otpVerifyDelay: otpVerifyDelay,
		sessions:       make(map[string]*sessionEntry),
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Get("/menu", s.handleMenu)
	r.Get("/menu/{category}", s.handleMenuCategory)

	r.Get("/order", s.handleOrder)
	r.Put("/order/config", s.handleOrderConfig)

	r.Post("/cart/items", s.handleAddItem)
	r.Put("/cart/items/{itemID}", s.handleSetQuantity)
	r.Delete("/cart/items/{itemID}", s.handleRemoveItem)

	r.Post("/checkout", s.handleCheckout)
	r.Get("/cash-payment", s.handleCashPayment)
	r.Post("/cash-payment/confirm", s.handleCashConfirm)
	r.Post("/cash-payment/cancel", s.handleCashCancel)
	r.Post("/token", s.handleGenerateToken)

	r.Post("/auth/phone", s.handleAuthPhone)
	r.Post("/auth/otp", s.handleAuthOTP)
	r.Post("/auth/logout", s.handleLogout)

	return r
}

// entry returns the session for the request's cookie, creating a new
// session (and setting the cookie) on first contact.
func (s *Server) entry(w http.ResponseWriter, r *http.Request) *sessionEntry {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		id = c.Value
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if e, ok := s.sessions[id]; ok {
			return e
		}
	} else {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
		})
	}

	e := &sessionEntry{
		session: services.NewSession(r.Context(), id, s.deps),
		login:   services.NewLoginFlow(s.deps.Notifier, s.otpSendDelay, s.otpVerifyDelay),
	}
	s.sessions[id] = e
	return e
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorw("write response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, errorResponse{Error: code, Message: message})
}
