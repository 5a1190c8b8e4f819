package wallets

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/walletgrid/walletgrid/internal/registry"
)

// Handler exposes the wallet listing endpoint.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet listing HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List serves GET /wallets. Query params: asset, owner_id, address, frozen,
// page, page_size.
func (h *Handler) List(c *fiber.Ctx) error {
	in := ListInput{
		Asset:           c.Query("asset"),
		AddressContains: c.Query("address"),
		Page:            c.QueryInt("page", 1),
		PageSize:        c.QueryInt("page_size", 20),
	}

	if v := c.Query("owner_id"); v != "" {
		ownerID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid owner_id")
		}
		in.OwnerID = &ownerID
	}
	if v := c.Query("frozen"); v != "" {
		frozen, err := strconv.ParseBool(v)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid frozen flag")
		}
		in.Frozen = &frozen
	}

	res, err := h.service.List(c.UserContext(), in)
	if err != nil {
		if errors.Is(err, registry.ErrUnknownAsset) || errors.Is(err, ErrInvalidPage) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(res)
}
