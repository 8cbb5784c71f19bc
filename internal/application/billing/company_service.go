package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CompanyService manages the revision history of the company details
type CompanyService struct {
	companyRepo    billing.CompanyInfoRepository
	txScope        TransactionScope
	clock          shared.Clock
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCompanyService creates a new CompanyService
func NewCompanyService(
	companyRepo billing.CompanyInfoRepository,
	txScope TransactionScope,
	clock shared.Clock,
	logger *zap.Logger,
) *CompanyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{
		companyRepo: companyRepo,
		txScope:     txScope,
		clock:       clock,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CompanyService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// GetLatest returns the current company details, creating the defaults on first use
func (s *CompanyService) GetLatest(ctx context.Context) (*CompanyInfoResponse, error) {
	var latest *billing.CompanyInfo
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		latest, err = latestCompanyOrDefault(ctx, repos.CompanyInfo(), s.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	response := ToCompanyInfoResponse(latest)
	return &response, nil
}

// Edit applies changes to a revision, the latest one unless req.ID names another.
// A published latest revision is superseded by a new revision; a draft is
// changed in place; an older published revision is immutable.
func (s *CompanyService) Edit(ctx context.Context, req UpdateCompanyInfoRequest) (*CompanyEditResponse, error) {
	var outcome billing.EditOutcome

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		now := s.clock.Now()
		latest, err := latestCompanyOrDefault(ctx, repos.CompanyInfo(), now)
		if err != nil {
			return err
		}

		rev := latest
		if req.ID != nil && *req.ID != latest.ID {
			rev, err = repos.CompanyInfo().FindByID(ctx, *req.ID)
			if err != nil {
				return err
			}
		}

		outcome, err = billing.Edit(rev, req.Changes(), rev.ID == latest.ID, now)
		if err != nil {
			return err
		}
		return repos.CompanyInfo().Save(ctx, outcome.Revision)
	})
	if err != nil {
		return nil, err
	}

	if outcome.Created {
		s.logger.Info("Company revision created",
			zap.String("revision_id", outcome.Revision.ID.String()),
			zap.Stringer("original_id", uuidOrNil(outcome.Revision.OriginalID)),
		)
		if s.eventPublisher != nil {
			_ = s.eventPublisher.Publish(ctx, outcome.Revision.GetDomainEvents()...)
		}
		outcome.Revision.ClearDomainEvents()
	}

	return &CompanyEditResponse{
		Revision: ToCompanyInfoResponse(outcome.Revision),
		Created:  outcome.Created,
	}, nil
}

// History lists every revision of the company details, newest first
func (s *CompanyService) History(ctx context.Context) ([]CompanyInfoResponse, error) {
	revisions, err := s.companyRepo.FindRevisions(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]CompanyInfoResponse, len(revisions))
	for i, rev := range revisions {
		responses[i] = ToCompanyInfoResponse(rev)
	}
	return responses, nil
}

func uuidOrNil(id *uuid.UUID) uuid.UUID {
	if id == nil {
		return uuid.Nil
	}
	return *id
}
