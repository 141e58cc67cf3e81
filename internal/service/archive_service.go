package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FightFi/booster/internal/domain"
)

// EventArchiver uploads a purged event's final snapshot to object storage
// and returns the object path.
type EventArchiver interface {
	ArchiveEvent(ctx context.Context, ev domain.Event, fights []domain.Fight, boosts []domain.Boost, trail []domain.AuditEntry) (string, error)
}

// ArchiveService gathers an event's mirrored records and audit trail and
// hands them to the archiver. It reads from the stores rather than the
// engine so archival works for events the engine has already dropped.
type ArchiveService struct {
	archiver EventArchiver
	events   domain.EventStore
	fights   domain.FightStore
	boosts   domain.BoostStore
	audit    domain.AuditStore
	bus      domain.SignalBus
	logger   *slog.Logger
}

// NewArchiveService creates an ArchiveService. The bus is optional.
func NewArchiveService(
	archiver EventArchiver,
	events domain.EventStore,
	fights domain.FightStore,
	boosts domain.BoostStore,
	audit domain.AuditStore,
	bus domain.SignalBus,
	logger *slog.Logger,
) *ArchiveService {
	return &ArchiveService{
		archiver: archiver,
		events:   events,
		fights:   fights,
		boosts:   boosts,
		audit:    audit,
		bus:      bus,
		logger:   logger.With(slog.String("component", "archive_service")),
	}
}

// ArchiveEvent snapshots one event to object storage and announces the
// archive over the bus. Call it after a successful purge.
func (s *ArchiveService) ArchiveEvent(ctx context.Context, eventID string) (string, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("archive_service: load event %s: %w", eventID, err)
	}
	fights, err := s.fights.ListByEvent(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("archive_service: load fights %s: %w", eventID, err)
	}
	boosts, err := s.boosts.ListByEvent(ctx, eventID)
	if err != nil {
		return "", fmt.Errorf("archive_service: load boosts %s: %w", eventID, err)
	}
	trail, err := s.auditTrail(ctx, eventID)
	if err != nil {
		return "", err
	}

	path, err := s.archiver.ArchiveEvent(ctx, ev, fights, boosts, trail)
	if err != nil {
		return "", fmt.Errorf("archive_service: archive %s: %w", eventID, err)
	}

	s.logger.InfoContext(ctx, "event archived",
		slog.String("event_id", eventID),
		slog.String("path", path),
		slog.Int("fights", len(fights)),
		slog.Int("boosts", len(boosts)),
	)

	s.announce(ctx, ev, path)
	return path, nil
}

// auditTrail returns the audit entries whose detail references the event.
func (s *ArchiveService) auditTrail(ctx context.Context, eventID string) ([]domain.AuditEntry, error) {
	entries, err := s.audit.List(ctx, domain.ListOpts{})
	if err != nil {
		return nil, fmt.Errorf("archive_service: load audit trail %s: %w", eventID, err)
	}
	var trail []domain.AuditEntry
	for _, e := range entries {
		if id, ok := e.Detail["event_id"].(string); ok && id == eventID {
			trail = append(trail, e)
		}
	}
	return trail, nil
}

// announce publishes an event.archived notification. Failure is non-fatal;
// the archive itself already succeeded.
func (s *ArchiveService) announce(ctx context.Context, ev domain.Event, path string) {
	if s.bus == nil {
		return
	}
	n := domain.Notification{
		ID:      uuid.New().String(),
		Type:    domain.NotifyEventArchived,
		EventID: ev.ID,
		Detail:  map[string]any{"path": path, "season": ev.SeasonID},
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return
	}
	if err := s.bus.Publish(ctx, NotificationChannel, payload); err != nil {
		s.logger.WarnContext(ctx, "archive announce failed",
			slog.String("event_id", ev.ID),
			slog.String("error", err.Error()),
		)
	}
}
