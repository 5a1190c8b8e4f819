package routes

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/walletgrid/walletgrid/internal/config"
	"github.com/walletgrid/walletgrid/internal/logging"
	"github.com/walletgrid/walletgrid/internal/wallets"
)

func setupDevApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	cfg := config.Config{AppName: "WalletGrid", AppEnv: "development", LedgerTimeout: 0, ScatterRowCap: 500, MaxPageSize: 100}
	if err := Setup(app, Deps{Cfg: cfg, Logger: logging.Discard()}); err != nil {
		t.Fatalf("setup routes: %v", err)
	}
	return app
}

func TestHealthzWithoutBackends(t *testing.T) {
	app := setupDevApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/healthz", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestListWalletsEmptyFleet(t *testing.T) {
	app := setupDevApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/wallets?page=1&page_size=20", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var res wallets.ListResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Total != 0 || res.Partial {
		t.Fatalf("expected clean empty listing, got %+v", res)
	}
}

func TestListWalletsRejectsUnknownAsset(t *testing.T) {
	app := setupDevApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/wallets?asset=SHIB", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestFreezeEndpointsWiredButEmpty(t *testing.T) {
	app := setupDevApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/wallets/BTC/42/freeze", strings.NewReader(`{"reason":"fraud"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set("X-Actor-ID", "7")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	// Dev fleet starts empty, so the wallet cannot exist.
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
