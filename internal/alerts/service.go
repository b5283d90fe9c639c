package alerts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/safeline/safeline/internal/apperror"
)

// Service records panic alerts and serves the admin read view.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs an alert service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Record validates the coordinates, stamps the alert with the server clock and
// appends it. Nothing is stored when validation fails.
func (s *Service) Record(ctx context.Context, in RecordInput) (Alert, error) {
	lat, err := parseCoordinate("latitude", in.Latitude, 90)
	if err != nil {
		return Alert{}, err
	}
	lng, err := parseCoordinate("longitude", in.Longitude, 180)
	if err != nil {
		return Alert{}, err
	}

	alert := Alert{
		Latitude:  lat,
		Longitude: lng,
		Address:   strings.TrimSpace(in.Address),
		Timestamp: s.now().UnixMilli(),
	}
	id, err := s.repo.Append(ctx, alert)
	if err != nil {
		return Alert{}, fmt.Errorf("record alert: %w", err)
	}
	alert.ID = id

	s.logger.Info("alerts.record completed", slog.Int64("alert_id", id), slog.Int64("timestamp", alert.Timestamp))
	return alert, nil
}

// ListRecent returns the newest alerts first. limit is clamped to (0, MaxRecent];
// a non-positive limit means MaxRecent.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Alert, error) {
	if limit <= 0 || limit > MaxRecent {
		limit = MaxRecent
	}
	out, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return out, nil
}

func parseCoordinate(field, raw string, bound float64) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, apperror.Invalid("invalid lat/lng: " + field + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, apperror.Invalid("invalid lat/lng: " + field + " must be a number")
	}
	if v < -bound || v > bound {
		return 0, apperror.Invalid(fmt.Sprintf("invalid lat/lng: %s must be between %g and %g", field, -bound, bound))
	}
	return v, nil
}
