package freeze

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/walletgrid/walletgrid/internal/ledger"
	"github.com/walletgrid/walletgrid/internal/registry"
)

const actorIDHeader = "X-Actor-ID"

// Handler exposes the freeze/unfreeze HTTP endpoints. Authentication lives
// upstream; the operator identity arrives as the X-Actor-ID header.
type Handler struct {
	coordinator *Coordinator
}

// NewHandler builds a freeze HTTP handler.
func NewHandler(coordinator *Coordinator) *Handler {
	return &Handler{coordinator: coordinator}
}

type freezeRequest struct {
	Reason string `json:"reason"`
}

// FreezeWallet serves POST /wallets/:asset/:walletID/freeze.
func (h *Handler) FreezeWallet(c *fiber.Ctx) error {
	actorID, err := actorFrom(c)
	if err != nil {
		return err
	}
	walletID, err := walletIDFrom(c)
	if err != nil {
		return err
	}
	var req freezeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Reason == "" {
		return fiber.NewError(http.StatusBadRequest, "reason is required")
	}

	res, err := h.coordinator.FreezeWallet(c.UserContext(), c.Params("asset"), walletID, req.Reason, actorID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(res)
}

// UnfreezeWallet serves POST /wallets/:asset/:walletID/unfreeze.
func (h *Handler) UnfreezeWallet(c *fiber.Ctx) error {
	actorID, err := actorFrom(c)
	if err != nil {
		return err
	}
	walletID, err := walletIDFrom(c)
	if err != nil {
		return err
	}

	res, err := h.coordinator.UnfreezeWallet(c.UserContext(), c.Params("asset"), walletID, actorID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(res)
}

// FreezeOwner serves POST /owners/:ownerID/freeze.
func (h *Handler) FreezeOwner(c *fiber.Ctx) error {
	actorID, err := actorFrom(c)
	if err != nil {
		return err
	}
	ownerID, err := ownerIDFrom(c)
	if err != nil {
		return err
	}
	var req freezeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Reason == "" {
		return fiber.NewError(http.StatusBadRequest, "reason is required")
	}

	res, err := h.coordinator.FreezeAllForOwner(c.UserContext(), ownerID, req.Reason, actorID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(res)
}

// UnfreezeOwner serves POST /owners/:ownerID/unfreeze.
func (h *Handler) UnfreezeOwner(c *fiber.Ctx) error {
	actorID, err := actorFrom(c)
	if err != nil {
		return err
	}
	ownerID, err := ownerIDFrom(c)
	if err != nil {
		return err
	}

	res, err := h.coordinator.UnfreezeAllForOwner(c.UserContext(), ownerID, actorID)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(res)
}

func actorFrom(c *fiber.Ctx) (int64, error) {
	v := c.Get(actorIDHeader)
	if v == "" {
		return 0, fiber.NewError(http.StatusBadRequest, "missing "+actorIDHeader+" header")
	}
	actorID, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fiber.NewError(http.StatusBadRequest, "invalid "+actorIDHeader+" header")
	}
	return actorID, nil
}

func walletIDFrom(c *fiber.Ctx) (int64, error) {
	walletID, err := strconv.ParseInt(c.Params("walletID"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(http.StatusBadRequest, "invalid wallet id")
	}
	return walletID, nil
}

func ownerIDFrom(c *fiber.Ctx) (int64, error) {
	ownerID, err := strconv.ParseInt(c.Params("ownerID"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(http.StatusBadRequest, "invalid owner id")
	}
	return ownerID, nil
}

func mapError(err error) error {
	var unavailable *ledger.UnavailableError
	switch {
	case errors.Is(err, registry.ErrUnknownAsset):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.As(err, &unavailable):
		return fiber.NewError(http.StatusServiceUnavailable, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
