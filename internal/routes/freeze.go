package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/walletgrid/walletgrid/internal/freeze"
)

// RegisterFreezeRoutes wires the freeze/unfreeze endpoints.
func RegisterFreezeRoutes(router fiber.Router, handler *freeze.Handler) {
	router.Post("/wallets/:asset/:walletID/freeze", handler.FreezeWallet)
	router.Post("/wallets/:asset/:walletID/unfreeze", handler.UnfreezeWallet)
	router.Post("/owners/:ownerID/freeze", handler.FreezeOwner)
	router.Post("/owners/:ownerID/unfreeze", handler.UnfreezeOwner)
}
