package catalog

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/neointegra/neointegra-backend/pkg/db/models"
	pkgerrors "github.com/neointegra/neointegra-backend/pkg/errors"
)

// Service defines the read surface over the service catalog.
type Service interface {
	ListServices(ctx context.Context, category string) ([]models.Service, error)
	GetService(ctx context.Context, slug string) (*models.Service, error)
}

type service struct {
	repo Repository
}

// NewService builds the catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListServices(ctx context.Context, category string) ([]models.Service, error) {
	services, err := s.repo.ListActive(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list services")
	}
	return services, nil
}

func (s *service) GetService(ctx context.Context, slug string) (*models.Service, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service slug required")
	}
	svc, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service")
	}
	if !svc.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service not found")
	}
	return svc, nil
}
