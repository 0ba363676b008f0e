package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"food-kiosk/models"
	"food-kiosk/services"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	return newCatalogServer(t, services.DefaultCatalog())
}

func newCatalogServer(t *testing.T, catalog services.Catalog) (*httptest.Server, *http.Client) {
	t.Helper()

	deps := services.Deps{
		Store:            services.NewMemoryStore(),
		Notifier:         services.NewMemoryNotifier(),
		Log:              zap.NewNop().Sugar(),
		TaxRate:          decimal.RequireFromString("0.08"),
		ServiceFee:       decimal.RequireFromString("0.50"),
		Currency:         "INR",
		TokenRevealDelay: time.Millisecond,
	}
	srv := NewServer(zap.NewNop().Sugar(), catalog, services.NewSimulatedGateway(0), deps, time.Millisecond, time.Millisecond)

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return ts, &http.Client{Jar: jar}
}

func do(t *testing.T, client *http.Client, method, url string, body any, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, url, err)
		}
	}
	return resp
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func TestHealth(t *testing.T) {
	ts, client := newTestServer(t)

	var body map[string]string
	resp := do(t, client, http.MethodGet, ts.URL+"/health", nil, &body)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", resp.StatusCode, body)
	}
}

func TestMenuEndpoints(t *testing.T) {
	ts, client := newTestServer(t)

	var menu map[string][]map[string]any
	resp := do(t, client, http.MethodGet, ts.URL+"/menu", nil, &menu)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(menu) != 6 {
		t.Errorf("menu has %d categories, want 6", len(menu))
	}
	if len(menu["popular"]) != 6 {
		t.Errorf("popular has %d entries, want 6", len(menu["popular"]))
	}

	var entries []map[string]any
	resp = do(t, client, http.MethodGet, ts.URL+"/menu/burgers", nil, &entries)
	if resp.StatusCode != http.StatusOK || len(entries) != 2 {
		t.Errorf("burgers = %d entries, status %d", len(entries), resp.StatusCode)
	}

	var errBody errorBody
	resp = do(t, client, http.MethodGet, ts.URL+"/menu/pizza", nil, &errBody)
	if resp.StatusCode != http.StatusNotFound || errBody.Error != "UNKNOWN_CATEGORY" {
		t.Errorf("unknown category = %d %v", resp.StatusCode, errBody)
	}
}

func TestCartLifecycle(t *testing.T) {
	ts, client := newTestServer(t)

	var view orderView
	do(t, client, http.MethodPost, ts.URL+"/cart/items", map[string]string{"item_id": "popular-1"}, &view)
	do(t, client, http.MethodPost, ts.URL+"/cart/items", map[string]string{"item_id": "popular-1"}, &view)

	if view.ItemCount != 2 || len(view.Lines) != 1 {
		t.Errorf("after two adds: count=%d lines=%d", view.ItemCount, len(view.Lines))
	}
	if view.Pricing.Subtotal != "381.98" {
		t.Errorf("subtotal = %s, want 381.98", view.Pricing.Subtotal)
	}
	if view.Pricing.Total != "413.04" {
		t.Errorf("total = %s, want 413.04", view.Pricing.Total)
	}

	do(t, client, http.MethodPut, ts.URL+"/cart/items/popular-1", map[string]int{"quantity": 5}, &view)
	if view.ItemCount != 5 {
		t.Errorf("after quantity update: count=%d", view.ItemCount)
	}

	do(t, client, http.MethodDelete, ts.URL+"/cart/items/popular-1", nil, &view)
	if view.ItemCount != 0 || len(view.Lines) != 0 {
		t.Errorf("after delete: count=%d lines=%d", view.ItemCount, len(view.Lines))
	}

	var errBody errorBody
	resp := do(t, client, http.MethodPost, ts.URL+"/cart/items", map[string]string{"item_id": "nope"}, &errBody)
	if resp.StatusCode != http.StatusNotFound || errBody.Error != "UNKNOWN_ITEM" {
		t.Errorf("unknown item = %d %v", resp.StatusCode, errBody)
	}
}

type failingCatalog struct {
	err error
}

func (f *failingCatalog) List(_ context.Context, _ string) ([]models.MenuEntry, error) {
	return nil, f.err
}

func (f *failingCatalog) Get(_ context.Context, _ string) (*models.MenuEntry, error) {
	return nil, f.err
}

func TestCatalogFailureIsNotAMissingItem(t *testing.T) {
	ts, client := newCatalogServer(t, &failingCatalog{err: errors.New("connection refused")})

	var errBody errorBody
	resp := do(t, client, http.MethodPost, ts.URL+"/cart/items", map[string]string{"item_id": "popular-1"}, &errBody)
	if resp.StatusCode != http.StatusInternalServerError || errBody.Error != "INTERNAL_ERROR" {
		t.Errorf("lookup failure = %d %v, want 500 INTERNAL_ERROR", resp.StatusCode, errBody)
	}
	if errBody.Error == "UNKNOWN_ITEM" {
		t.Error("a failed lookup must not read as a missing item")
	}

	resp = do(t, client, http.MethodGet, ts.URL+"/menu", nil, &errBody)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("menu with failing catalog = %d, want 500", resp.StatusCode)
	}
}

func TestCartSurvivesAcrossRequests(t *testing.T) {
	ts, client := newTestServer(t)

	do(t, client, http.MethodPost, ts.URL+"/cart/items", map[string]string{"item_id": "side-2"}, nil)

	var view orderView
	do(t, client, http.MethodGet, ts.URL+"/order", nil, &view)
	if view.ItemCount != 1 {
		t.Errorf("cookie session lost the cart: count=%d", view.ItemCount)
	}
	if view.OrderNumber == "" {
		t.Error("order number missing")
	}
}

func TestOrderConfig(t *testing.T) {
	ts, client := newTestServer(t)

	var view orderView
	do(t, client, http.MethodPut, ts.URL+"/order/config", map[string]string{
		"fulfillment":  "takeaway",
		"table_number": "12",
	}, &view)
	if view.Config.Fulfillment != "takeaway" || view.Config.TableNumber != "12" {
		t.Errorf("config = %+v", view.Config)
	}

	var errBody errorBody
	resp := do(t, client, http.MethodPut, ts.URL+"/order/config", map[string]string{"fulfillment": "delivery"}, &errBody)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid fulfillment accepted: %d", resp.StatusCode)
	}
}

func TestCheckoutValidation(t *testing.T) {
	ts, client := newTestServer(t)

	var errBody errorBody
	resp := do(t, client, http.MethodPost, ts.URL+"/checkout", nil, &errBody)
	if resp.StatusCode != http.StatusBadRequest || errBody.Error != "EMPTY_CART" {
		t.Errorf("empty cart checkout = %d %v", resp.StatusCode, errBody)
	}

	do(t, client, http.MethodPost, ts.URL+"/cart/items", map[string]string{"item_id": "popular-1"}, nil)
	resp = do(t, client, http.MethodPost, ts.URL+"/checkout", nil, &errBody)
	if resp.StatusCode != http.StatusBadRequest || errBody.Error != "TABLE_NUMBER_REQUIRED" {
		t.Errorf("dine-in without table = %d %v", resp.StatusCode, errBody)
	}
}

func TestCardCheckoutOverHTTP(t *testing.T) {
	ts, client := newTestServer(t)

	do(t, client, http.MethodPost, ts.URL+"/cart/items", map[string]string{"item_id": "popular-1"}, nil)
	do(t, client, http.MethodPut, ts.URL+"/order/config", map[string]string{"table_number": "4"}, nil)

	var res struct {
		State         string `json:"state"`
		TokenNumber   string `json:"token_number"`
		TransactionID string `json:"transaction_id"`
	}
	resp := do(t, client, http.MethodPost, ts.URL+"/checkout", nil, &res)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if res.State != "token_issued" {
		t.Errorf("state = %s", res.State)
	}
	if len(res.TokenNumber) != 4 {
		t.Errorf("token = %q", res.TokenNumber)
	}
	if res.TransactionID == "" {
		t.Error("transaction id missing")
	}
}

func TestCashCheckoutOverHTTP(t *testing.T) {
	ts, client := newTestServer(t)

	do(t, client, http.MethodPost, ts.URL+"/cart/items", map[string]string{"item_id": "popular-1"}, nil)
	do(t, client, http.MethodPost, ts.URL+"/cart/items", map[string]string{"item_id": "popular-1"}, nil)
	do(t, client, http.MethodPut, ts.URL+"/order/config", map[string]string{
		"table_number":   "4",
		"payment_method": "cash",
	}, nil)

	var res map[string]string
	resp := do(t, client, http.MethodPost, ts.URL+"/checkout", nil, &res)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if res["state"] != "cash_pending" {
		t.Errorf("state = %s", res["state"])
	}
	if res["redirect"] != "/cash-payment?amount=413.04" {
		t.Errorf("redirect = %s", res["redirect"])
	}

	var screen map[string]string
	do(t, client, http.MethodGet, ts.URL+res["redirect"], nil, &screen)
	if screen["amount"] != "413.04" {
		t.Errorf("cash screen amount = %s", screen["amount"])
	}

	var confirm map[string]string
	resp = do(t, client, http.MethodPost, ts.URL+"/cash-payment/confirm", nil, &confirm)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm status = %d", resp.StatusCode)
	}
	if confirm["state"] != "token_issued" || len(confirm["token_number"]) != 4 {
		t.Errorf("confirm = %v", confirm)
	}

	var errBody errorBody
	resp = do(t, client, http.MethodPost, ts.URL+"/cash-payment/confirm", nil, &errBody)
	if resp.StatusCode != http.StatusConflict || errBody.Error != "NOT_CASH_PENDING" {
		t.Errorf("second confirm = %d %v", resp.StatusCode, errBody)
	}
}

func TestCashCancelOverHTTP(t *testing.T) {
	ts, client := newTestServer(t)

	do(t, client, http.MethodPost, ts.URL+"/cart/items", map[string]string{"item_id": "popular-1"}, nil)
	do(t, client, http.MethodPut, ts.URL+"/order/config", map[string]string{
		"table_number":   "4",
		"payment_method": "cash",
	}, nil)
	do(t, client, http.MethodPost, ts.URL+"/checkout", nil, nil)

	var res map[string]string
	do(t, client, http.MethodPost, ts.URL+"/cash-payment/cancel", nil, &res)
	if res["state"] != "building" || res["redirect"] != "/" {
		t.Errorf("cancel = %v", res)
	}

	var view orderView
	do(t, client, http.MethodGet, ts.URL+"/order", nil, &view)
	if view.ItemCount != 1 {
		t.Errorf("cancel emptied the cart: count=%d", view.ItemCount)
	}
}

func TestGenerateTokenEndpoint(t *testing.T) {
	ts, client := newTestServer(t)

	var errBody errorBody
	resp := do(t, client, http.MethodPost, ts.URL+"/token", nil, &errBody)
	if resp.StatusCode != http.StatusBadRequest || errBody.Error != "EMPTY_CART" {
		t.Errorf("token on empty cart = %d %v", resp.StatusCode, errBody)
	}

	do(t, client, http.MethodPost, ts.URL+"/cart/items", map[string]string{"item_id": "popular-1"}, nil)

	var res map[string]string
	resp = do(t, client, http.MethodPost, ts.URL+"/token", nil, &res)
	if resp.StatusCode != http.StatusOK || len(res["token_number"]) != 4 {
		t.Errorf("token = %d %v", resp.StatusCode, res)
	}
}

func TestAuthFlowOverHTTP(t *testing.T) {
	ts, client := newTestServer(t)

	var errBody errorBody
	resp := do(t, client, http.MethodPost, ts.URL+"/auth/otp", map[string]string{"otp": "1234"}, &errBody)
	if resp.StatusCode != http.StatusConflict || errBody.Error != "OTP_NOT_REQUESTED" {
		t.Errorf("otp before phone = %d %v", resp.StatusCode, errBody)
	}

	resp = do(t, client, http.MethodPost, ts.URL+"/auth/phone", map[string]string{"phone": "98765"}, &errBody)
	if resp.StatusCode != http.StatusBadRequest || errBody.Error != "INVALID_PHONE" {
		t.Errorf("short phone = %d %v", resp.StatusCode, errBody)
	}

	var step map[string]string
	resp = do(t, client, http.MethodPost, ts.URL+"/auth/phone", map[string]string{"phone": "9876543210"}, &step)
	if resp.StatusCode != http.StatusOK || step["step"] != "otp" {
		t.Errorf("phone submit = %d %v", resp.StatusCode, step)
	}

	var profile struct {
		Name         string `json:"name"`
		Phone        string `json:"phone"`
		RewardPoints int    `json:"reward_points"`
	}
	resp = do(t, client, http.MethodPost, ts.URL+"/auth/otp", map[string]string{"otp": "4321"}, &profile)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("otp submit = %d", resp.StatusCode)
	}
	if profile.Phone != "9876543210" {
		t.Errorf("profile = %+v", profile)
	}

	var view orderView
	do(t, client, http.MethodGet, ts.URL+"/order", nil, &view)
	if view.Profile == nil || view.Profile.Phone != "9876543210" {
		t.Errorf("order view profile = %+v", view.Profile)
	}

	do(t, client, http.MethodPost, ts.URL+"/auth/logout", nil, nil)
	view = orderView{}
	do(t, client, http.MethodGet, ts.URL+"/order", nil, &view)
	if view.Profile != nil {
		t.Errorf("profile survived logout: %+v", view.Profile)
	}
}
