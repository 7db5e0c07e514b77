package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"vaultcal/internal/clients/caldav"
	"vaultcal/internal/domain"
)

// RecordStore is the vault note store the sync engine works against
type RecordStore interface {
	ListEvents() ([]*domain.EventRecord, error)
	UpdateMetadata(path string, edit func(meta map[string]any)) error
	CreateEvent(name, body string, meta map[string]any) (string, error)
}

// Calendar is the remote calendar the sync engine pushes to and pulls from
type Calendar interface {
	Publish(ctx context.Context, event *caldav.Event) (*caldav.PublishInfo, error)
	FetchCollection(ctx context.Context) ([]caldav.Event, error)
}

// Notifier delivers short fire-and-forget messages to the user
type Notifier interface {
	Notify(message string)
}

// Journal records finished sync passes; failures to record never fail a pass
type Journal interface {
	RecordPass(pass *domain.SyncPass) error
}

// SyncService reconciles the vault's event notes with the remote calendar
type SyncService struct {
	store    RecordStore
	calendar Calendar
	notifier Notifier
	journal  Journal // optional
	timezone *time.Location
	logger   *zap.Logger
}

func NewSyncService(store RecordStore, calendar Calendar, notifier Notifier, journal Journal, tz *time.Location, logger *zap.Logger) *SyncService {
	if tz == nil {
		tz = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		store:    store,
		calendar: calendar,
		notifier: notifier,
		journal:  journal,
		timezone: tz,
		logger:   logger,
	}
}

// SyncRecord publishes one local event record. On success the record's
// guid and url are updated in place and persisted into the note's
// frontmatter. On failure the record is left untouched and false is
// returned; no error escapes this boundary.
func (s *SyncService) SyncRecord(ctx context.Context, rec *domain.EventRecord) bool {
	event, err := ToCalendarEvent(rec, s.timezone)
	if err != nil {
		s.logger.Warn("event record not mappable",
			zap.String("path", rec.Path), zap.Error(err))
		return false
	}

	info, err := s.calendar.Publish(ctx, event)
	if err != nil {
		s.logger.Warn("publish failed",
			zap.String("path", rec.Path), zap.String("uid", event.UID), zap.Error(err))
		return false
	}

	err = s.store.UpdateMetadata(rec.Path, func(meta map[string]any) {
		meta[domain.MetaGUID] = info.UID
		meta[domain.MetaURL] = info.URL
	})
	if err != nil {
		s.logger.Error("published but metadata not persisted",
			zap.String("path", rec.Path), zap.String("uid", info.UID), zap.Error(err))
		return false
	}

	rec.GUID = info.UID
	rec.URL = info.URL
	return true
}

// SyncAll runs one full reconciliation pass: pushes every eligible record
// concurrently, then imports remote events whose UID is not known locally.
// The known-UID set is built from the records' pre-push GUIDs, so events
// published for the first time during this pass are matched by the UID
// the push wrote back, not by this set. Individual record failures never
// abort the pass; only the inability to enumerate records does.
func (s *SyncService) SyncAll(ctx context.Context) (*domain.SyncPass, error) {
	records, err := s.store.ListEvents()
	if err != nil {
		return nil, fmt.Errorf("list event records: %w", err)
	}

	pass := &domain.SyncPass{StartedAt: time.Now()}

	knownUIDs := make(map[string]struct{}, len(records))
	for _, rec := range records {
		if rec.GUID != "" {
			knownUIDs[rec.GUID] = struct{}{}
		}
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, rec := range records {
		wg.Add(1)
		go func(rec *domain.EventRecord) {
			defer wg.Done()
			ok := s.SyncRecord(ctx, rec)

			mu.Lock()
			defer mu.Unlock()
			if ok {
				pass.Pushed++
			} else {
				pass.Failed++
				pass.Errors = append(pass.Errors, fmt.Sprintf("push %s failed", rec.Path))
			}
		}(rec)
	}
	wg.Wait()

	s.importRemote(ctx, knownUIDs, pass)

	pass.FinishedAt = time.Now()

	if s.journal != nil {
		if err := s.journal.RecordPass(pass); err != nil {
			s.logger.Warn("sync pass not journaled", zap.Error(err))
		}
	}

	s.notify(fmt.Sprintf("Sync complete: %d pushed, %d failed, %d imported, %d skipped",
		pass.Pushed, pass.Failed, pass.Imported, pass.Skipped))

	return pass, nil
}

// importRemote materializes remote events with unknown UIDs as new notes.
// A fetch failure means no import phase at all, never an empty collection.
func (s *SyncService) importRemote(ctx context.Context, knownUIDs map[string]struct{}, pass *domain.SyncPass) {
	events, err := s.calendar.FetchCollection(ctx)
	if err != nil {
		s.logger.Warn("fetch remote collection failed, skipping import phase", zap.Error(err))
		pass.Errors = append(pass.Errors, fmt.Sprintf("fetch collection: %v", err))
		return
	}

	for i := range events {
		event := &events[i]
		if _, known := knownUIDs[event.UID]; known {
			continue
		}

		draft, err := DraftFromCalendarEvent(event, s.timezone)
		if errors.Is(err, ErrMultiDaySpan) {
			pass.Skipped++
			s.notify(fmt.Sprintf("Skipped %q: multi-day timed events are not supported", event.Summary))
			continue
		}
		if err != nil {
			pass.Errors = append(pass.Errors, fmt.Sprintf("import %s: %v", event.UID, err))
			s.logger.Warn("remote event not importable",
				zap.String("uid", event.UID), zap.Error(err))
			continue
		}

		path, err := s.store.CreateEvent(draft.Name, draft.Description, draft.Metadata())
		if err != nil {
			pass.Errors = append(pass.Errors, fmt.Sprintf("import %s: %v", event.UID, err))
			s.logger.Warn("remote event not materialized",
				zap.String("uid", event.UID), zap.Error(err))
			continue
		}

		pass.Imported++
		s.logger.Info("imported remote event",
			zap.String("uid", event.UID), zap.String("path", path))
	}
}

func (s *SyncService) notify(message string) {
	if s.notifier != nil {
		s.notifier.Notify(message)
	}
}
