package freeze

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/walletgrid/walletgrid/internal/ledger"
)

func setupTestApp(t *testing.T) (*fiber.App, map[string]ledger.QueryAdapter) {
	t.Helper()
	c, adapters, _ := newFixture(t)
	seedOwnerNine(t, adapters)

	h := NewHandler(c)
	app := fiber.New()
	app.Post("/wallets/:asset/:walletID/freeze", h.FreezeWallet)
	app.Post("/wallets/:asset/:walletID/unfreeze", h.UnfreezeWallet)
	app.Post("/owners/:ownerID/freeze", h.FreezeOwner)
	return app, adapters
}

func TestFreezeEndpoint(t *testing.T) {
	app, adapters := setupTestApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/wallets/BTC/42/freeze", strings.NewReader(`{"reason":"fraud"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Actor-ID", "7")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.Success || res.Reason != "fraud" {
		t.Fatalf("unexpected response: %+v", res)
	}

	w, err := adapters["BTC"].FindOne(req.Context(), 42)
	if err != nil {
		t.Fatalf("find one: %v", err)
	}
	if !w.Frozen {
		t.Fatal("wallet not frozen through the endpoint")
	}
}

func TestFreezeEndpointRequiresActorAndReason(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/wallets/BTC/42/freeze", strings.NewReader(`{"reason":"fraud"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("missing actor header: expected 400, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest(fiber.MethodPost, "/wallets/BTC/42/freeze", strings.NewReader(`{}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Actor-ID", "7")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("missing reason: expected 400, got %d", resp.StatusCode)
	}
}

func TestFreezeEndpointNotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/wallets/BTC/404/freeze", strings.NewReader(`{"reason":"fraud"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Actor-ID", "7")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestBulkFreezeEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/owners/9/freeze", strings.NewReader(`{"reason":"compliance hold"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Actor-ID", "3")

	resp, err := app.Test(req, int(5*time.Second/time.Millisecond))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var res BulkResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.Success || len(res.Outcomes) != 9 {
		t.Fatalf("unexpected response: %+v", res)
	}
}
