package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shopvista/storefront/api/middleware"
	"github.com/shopvista/storefront/internal/catalog"
	pkgerrors "github.com/shopvista/storefront/pkg/errors"
)

type stubOrdersService struct {
	order      *catalog.Order
	checkoutAs string
	err        error
}

func (s *stubOrdersService) Checkout(ctx context.Context, userID string) (*catalog.Order, error) {
	s.checkoutAs = userID
	if s.err != nil {
		return nil, s.err
	}
	return s.order, nil
}

func (s *stubOrdersService) History(ctx context.Context, userID string) ([]catalog.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.order == nil {
		return nil, nil
	}
	return []catalog.Order{*s.order}, nil
}

func TestCheckoutUsesSessionIdentity(t *testing.T) {
	stub := &stubOrdersService{order: &catalog.Order{
		ID:     "ORD1700000000000",
		UserID: "ana@example.com",
		Total:  decimal.NewFromInt(35),
		Status: catalog.OrderStatusProcessing,
	}}
	handler := Checkout(stub, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), "ana@example.com"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if stub.checkoutAs != "ana@example.com" {
		t.Fatalf("expected session identity to reach the service, got %q", stub.checkoutAs)
	}

	var envelope struct {
		Data catalog.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != "ORD1700000000000" {
		t.Fatalf("unexpected order %+v", envelope.Data)
	}
}

func TestCheckoutEmptyCartMapsToConflict(t *testing.T) {
	stub := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")}
	handler := Checkout(stub, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestOrderHistoryAnonymousMapsToUnauthorized(t *testing.T) {
	stub := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeUnauthenticated, "login required to view orders")}
	handler := OrderHistory(stub, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestSessionController(t *testing.T) {
	handler := Session(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), "ana@example.com"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	var envelope struct {
		Data struct {
			Email         string `json:"email"`
			Authenticated bool   `json:"authenticated"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Data.Authenticated || envelope.Data.Email != "ana@example.com" {
		t.Fatalf("unexpected session payload %+v", envelope.Data)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Authenticated || envelope.Data.Email != "" {
		t.Fatalf("unexpected anonymous payload %+v", envelope.Data)
	}
}
