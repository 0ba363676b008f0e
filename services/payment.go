package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"food-kiosk/models"

	"github.com/google/uuid"
)

var (
	// ErrGatewayUnavailable means the card payment popup failed to open.
	// The session stays in building; the customer may retry manually.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrPaymentDeclined means the gateway opened but refused the charge.
	ErrPaymentDeclined = errors.New("payment declined")
)

// Prefill is the customer data handed to the card gateway. Anonymous
// defaults are used when nobody is signed in.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// PrefillFor builds gateway prefill data from the signed-in profile, falling
// back to guest defaults.
func PrefillFor(p *models.CustomerProfile) Prefill {
	pre := Prefill{
		Name:    "Guest User",
		Email:   "guest@example.com",
		Contact: "9999999999",
	}
	if p != nil {
		pre.Name = p.Name
		pre.Contact = p.Phone
	}
	return pre
}

type PaymentRequest struct {
	AmountMinor int64   `json:"amount"` // minor units (paise)
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	Prefill     Prefill `json:"prefill"`
}

type PaymentResult struct {
	TransactionID string `json:"transaction_id"`
}

// Gateway is the one-shot external card payment collaborator. Open either
// returns an opaque transaction id or fails; there is no partial state.
type Gateway interface {
	Open(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
}

// SimulatedGateway approves everything by default; DeclineRate introduces
// random declines for exercising the failure path.
type SimulatedGateway struct {
	DeclineRate float64
	rng         *rand.Rand
}

func NewSimulatedGateway(declineRate float64) *SimulatedGateway {
	return &SimulatedGateway{
		DeclineRate: declineRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *SimulatedGateway) Open(_ context.Context, req PaymentRequest) (*PaymentResult, error) {
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: non-positive amount %d", ErrGatewayUnavailable, req.AmountMinor)
	}
	if g.DeclineRate > 0 && g.rng.Float64() < g.DeclineRate {
		return nil, ErrPaymentDeclined
	}
	id := "pay_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:14])
	return &PaymentResult{TransactionID: id}, nil
}

// HTTPGateway posts the payment request to an external authorizer service.
type HTTPGateway struct {
	url    string
	client *http.Client
}

func NewHTTPGateway(url string) *HTTPGateway {
	return &HTTPGateway{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *HTTPGateway) Open(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var res PaymentResult
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return nil, fmt.Errorf("%w: bad response body", ErrGatewayUnavailable)
		}
		if res.TransactionID == "" {
			return nil, fmt.Errorf("%w: missing transaction id", ErrGatewayUnavailable)
		}
		return &res, nil
	case http.StatusPaymentRequired:
		return nil, ErrPaymentDeclined
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
}
