package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stoptime/backend/internal/domain/billing"
	"github.com/stoptime/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCompanyInfoRepository implements CompanyInfoRepository using GORM
type GormCompanyInfoRepository struct {
	db *gorm.DB
}

// NewGormCompanyInfoRepository creates a new GormCompanyInfoRepository
func NewGormCompanyInfoRepository(db *gorm.DB) *GormCompanyInfoRepository {
	return &GormCompanyInfoRepository{db: db}
}

// FindByID finds a company info revision by its ID
func (r *GormCompanyInfoRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.CompanyInfo, error) {
	var model models.CompanyInfoModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindLatest returns the head of the revision chain: the revision no other revision supersedes.
func (r *GormCompanyInfoRepository) FindLatest(ctx context.Context) (*billing.CompanyInfo, error) {
	var model models.CompanyInfoModel
	err := r.db.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM company_infos successor WHERE successor.original_id = company_infos.id)").
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindRevisions returns all revisions, newest first
func (r *GormCompanyInfoRepository) FindRevisions(ctx context.Context) ([]*billing.CompanyInfo, error) {
	var infoModels []models.CompanyInfoModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&infoModels).Error; err != nil {
		return nil, err
	}
	infos := make([]*billing.CompanyInfo, len(infoModels))
	for i := range infoModels {
		infos[i] = infoModels[i].ToDomain()
	}
	return infos, nil
}

// Save creates a revision or updates it under its version
func (r *GormCompanyInfoRepository) Save(ctx context.Context, info *billing.CompanyInfo) error {
	return saveVersioned(ctx, r.db, models.CompanyInfoModelFromDomain(info), info.ID, info.Version)
}

// Ensure GormCompanyInfoRepository implements CompanyInfoRepository
var _ billing.CompanyInfoRepository = (*GormCompanyInfoRepository)(nil)
