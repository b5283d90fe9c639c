package alerts

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/safeline/safeline/internal/apperror"
)

//go:embed templates/admin.html
var templateFS embed.FS

var adminPage = template.Must(template.New("admin.html").Funcs(template.FuncMap{
	"coord": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
}).ParseFS(templateFS, "templates/admin.html"))

// Handler exposes alert endpoints.
type Handler struct {
	service     *Service
	defaultPage int
}

// NewHandler constructs an alerts HTTP handler. defaultPage is the number of
// rows shown by the admin view when no limit is requested.
func NewHandler(service *Service, defaultPage int) *Handler {
	if defaultPage <= 0 || defaultPage > MaxRecent {
		defaultPage = MaxRecent
	}
	return &Handler{service: service, defaultPage: defaultPage}
}

type recordRequest struct {
	Latitude  Coordinate `json:"latitude" form:"latitude"`
	Longitude Coordinate `json:"longitude" form:"longitude"`
	Address   string     `json:"address" form:"address"`
}

// Record appends a panic alert.
func (h *Handler) Record(c *fiber.Ctx) error {
	var req recordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Wrap(apperror.ErrInvalidInput, "invalid lat/lng", err)
	}
	alert, err := h.service.Record(c.UserContext(), RecordInput{
		Latitude:  string(req.Latitude),
		Longitude: string(req.Longitude),
		Address:   req.Address,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true, "id": alert.ID, "timestamp": alert.Timestamp})
}

type adminView struct {
	Alerts []Alert
	Limit  int
}

// Admin renders the most recent alerts as an HTML table.
func (h *Handler) Admin(c *fiber.Ctx) error {
	limit := h.defaultPage
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return apperror.Invalid("limit must be a positive integer")
		}
		limit = min(n, MaxRecent)
	}

	list, err := h.service.ListRecent(c.UserContext(), limit)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := adminPage.Execute(&buf, adminView{Alerts: list, Limit: limit}); err != nil {
		return err
	}
	c.Type("html", "utf-8")
	return c.Status(http.StatusOK).Send(buf.Bytes())
}
