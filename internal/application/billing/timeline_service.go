package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TimelineService records and lists time entries
type TimelineService struct {
	taskRepo  billing.TaskRepository
	entryRepo billing.TimeEntryRepository
	settings  BillingSettings
	clock     shared.Clock
	logger    *zap.Logger
}

// NewTimelineService creates a new TimelineService
func NewTimelineService(
	taskRepo billing.TaskRepository,
	entryRepo billing.TimeEntryRepository,
	settings BillingSettings,
	clock shared.Clock,
	logger *zap.Logger,
) *TimelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimelineService{
		taskRepo:  taskRepo,
		entryRepo: entryRepo,
		settings:  settings,
		clock:     clock,
		logger:    logger,
	}
}

// Record records a time entry on a task. Start and end are rounded to the
// configured resolution; an end at or before start is moved to the next day.
func (s *TimelineService) Record(ctx context.Context, req RecordTimeEntryRequest) (*TimeEntryResponse, error) {
	task, err := s.taskRepo.FindByID(ctx, req.TaskID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	entry, err := billing.NewTimeEntry(task.ID, s.entryInput(req, now), s.settings.Billing().Resolution(), now)
	if err != nil {
		return nil, err
	}
	if err := s.entryRepo.Save(ctx, entry); err != nil {
		return nil, err
	}
	s.warnIfBilled(task, entry.ID)

	response := ToTimeEntryResponse(entry)
	return &response, nil
}

// GetByID retrieves a time entry by ID
func (s *TimelineService) GetByID(ctx context.Context, entryID uuid.UUID) (*TimeEntryResponse, error) {
	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	response := ToTimeEntryResponse(entry)
	return &response, nil
}

// Update replaces a time entry, rounding it again with the current resolution.
// BilledWarning is set when the entry leaves or joins a billed task.
func (s *TimelineService) Update(ctx context.Context, entryID uuid.UUID, req RecordTimeEntryRequest) (*TimeEntryMutationResponse, error) {
	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	source, err := s.taskRepo.FindByID(ctx, entry.TaskID)
	if err != nil {
		return nil, err
	}
	task := source
	if req.TaskID != source.ID {
		if task, err = s.taskRepo.FindByID(ctx, req.TaskID); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	if err := entry.Update(task.ID, s.entryInput(req, now), s.settings.Billing().Resolution(), now); err != nil {
		return nil, err
	}
	if err := s.entryRepo.Save(ctx, entry); err != nil {
		return nil, err
	}
	billed := s.warnIfBilled(source, entry.ID)
	if task != source {
		billed = s.warnIfBilled(task, entry.ID) || billed
	}

	return &TimeEntryMutationResponse{TimeEntryResponse: ToTimeEntryResponse(entry), BilledWarning: billed}, nil
}

// Delete removes a time entry. BilledWarning is set when its task is billed.
func (s *TimelineService) Delete(ctx context.Context, entryID uuid.UUID) (*TimeEntryMutationResponse, error) {
	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	task, err := s.taskRepo.FindByID(ctx, entry.TaskID)
	if err != nil {
		return nil, err
	}
	if err := s.entryRepo.Delete(ctx, entry.ID); err != nil {
		return nil, err
	}

	return &TimeEntryMutationResponse{
		TimeEntryResponse: ToTimeEntryResponse(entry),
		BilledWarning:     s.warnIfBilled(task, entry.ID),
	}, nil
}

// List lists time entries newest first, optionally for one customer and by billed state
func (s *TimelineService) List(ctx context.Context, filter TimelineFilter) ([]TimeEntryResponse, error) {
	entries, err := s.entryRepo.FindAll(ctx, billing.TimeEntryFilter{
		Filter:     shared.Filter{Page: filter.Page, PageSize: filter.PageSize},
		CustomerID: filter.CustomerID,
		Billed:     filter.Billed,
	})
	if err != nil {
		return nil, err
	}
	return ToTimeEntryResponses(entries), nil
}

func (s *TimelineService) entryInput(req RecordTimeEntryRequest, now time.Time) billing.TimeEntryInput {
	in := billing.TimeEntryInput{
		Start:   req.Start,
		End:     req.End,
		Comment: req.Comment,
		Bill:    true,
	}
	if req.Date != nil {
		in.Date = *req.Date
	} else {
		in.Date = now
	}
	if req.Bill != nil {
		in.Bill = *req.Bill
	}
	return in
}

func (s *TimelineService) warnIfBilled(task *billing.Task, entryID uuid.UUID) bool {
	if !task.IsBilled() {
		return false
	}
	s.logger.Warn("Time entry changed on billed task",
		zap.String("task_id", task.ID.String()),
		zap.String("entry_id", entryID.String()),
	)
	return true
}
