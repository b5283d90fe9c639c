package ledger

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/safeline/safeline/internal/apperror"
	"github.com/safeline/safeline/internal/middleware"
)

// Handler exposes contact endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a contacts HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type saveRequest struct {
	OwnerUserID string  `json:"ownerUserId"`
	UserID      string  `json:"user_id"`
	Contacts    []Entry `json:"contacts"`
}

type contactResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Save replaces the caller's contact list.
func (h *Handler) Save(c *fiber.Ctx) error {
	var req saveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.ErrInvalidInput, "invalid data format", err)
	}
	owner := req.OwnerUserID
	if owner == "" {
		owner = req.UserID
	}

	n, err := h.service.ReplaceAll(c.UserContext(), middleware.UserID(c), ReplaceInput{OwnerUserID: owner, Contacts: req.Contacts})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true, "saved": n})
}

// List returns the caller's contacts.
func (h *Handler) List(c *fiber.Ctx) error {
	contacts, err := h.service.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return err
	}
	out := make([]contactResponse, 0, len(contacts))
	for _, ct := range contacts {
		out = append(out, contactResponse{ID: ct.ID, Name: ct.Name, Phone: ct.Phone})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true, "contacts": out})
}
