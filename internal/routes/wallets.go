package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/walletgrid/walletgrid/internal/wallets"
)

// RegisterWalletRoutes wires the wallet listing endpoint.
func RegisterWalletRoutes(router fiber.Router, handler *wallets.Handler) {
	router.Get("/wallets", handler.List)
}
