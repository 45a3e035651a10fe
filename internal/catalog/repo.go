package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neointegra/neointegra-backend/pkg/db/models"
)

// Repository exposes catalog reads used by the API and order flows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context, category string) ([]models.Service, error)
	FindBySlug(ctx context.Context, slug string) (*models.Service, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	Create(ctx context.Context, svc *models.Service) (*models.Service, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActive(ctx context.Context, category string) ([]models.Service, error) {
	query := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("category ASC, price ASC")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var services []models.Service
	if err := query.Find(&services).Error; err != nil {
		return nil, err
	}
	return services, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*models.Service, error) {
	var svc models.Service
	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&svc).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var svc models.Service
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&svc).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *repository) Create(ctx context.Context, svc *models.Service) (*models.Service, error) {
	if err := r.db.WithContext(ctx).Create(svc).Error; err != nil {
		return nil, err
	}
	return svc, nil
}
