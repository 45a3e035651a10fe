package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/neointegra/neointegra-backend/pkg/db/models"
	pkgerrors "github.com/neointegra/neointegra-backend/pkg/errors"
)

type stubRepo struct {
	services map[string]*models.Service
	listed   string
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) ListActive(ctx context.Context, category string) ([]models.Service, error) {
	s.listed = category
	var out []models.Service
	for _, svc := range s.services {
		if svc.IsActive && (category == "" || svc.Category == category) {
			out = append(out, *svc)
		}
	}
	return out, nil
}

func (s *stubRepo) FindBySlug(ctx context.Context, slug string) (*models.Service, error) {
	svc, ok := s.services[slug]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return svc, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	for _, svc := range s.services {
		if svc.ID == id {
			return svc, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) Create(ctx context.Context, svc *models.Service) (*models.Service, error) {
	s.services[svc.Slug] = svc
	return svc, nil
}

func newStubRepo() *stubRepo {
	return &stubRepo{services: map[string]*models.Service{
		"company-profile-website": {
			ID:       uuid.New(),
			Slug:     "company-profile-website",
			Name:     "Company Profile Website",
			Category: "website",
			Price:    750000,
			IsActive: true,
		},
		"seo-audit": {
			ID:       uuid.New(),
			Slug:     "seo-audit",
			Name:     "SEO Audit",
			Category: "marketing",
			Price:    500000,
			IsActive: false,
		},
	}}
}

func TestListServicesFiltersByCategory(t *testing.T) {
	svc, err := NewService(newStubRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	services, err := svc.ListServices(context.Background(), "  website ")
	if err != nil {
		t.Fatalf("list services: %v", err)
	}
	if len(services) != 1 {
		t.Fatalf("expected 1 service got %d", len(services))
	}
	if services[0].Slug != "company-profile-website" {
		t.Fatalf("unexpected slug %s", services[0].Slug)
	}
}

func TestGetServiceHidesInactive(t *testing.T) {
	svc, err := NewService(newStubRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.GetService(context.Background(), "seo-audit"); err == nil {
		t.Fatal("expected inactive service to be hidden")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestGetServiceUnknownSlug(t *testing.T) {
	svc, err := NewService(newStubRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.GetService(context.Background(), "does-not-exist"); err == nil {
		t.Fatal("expected missing service error")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found got %v", err)
	}
}

func TestGetServiceRequiresSlug(t *testing.T) {
	svc, err := NewService(newStubRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.GetService(context.Background(), "   "); err == nil {
		t.Fatal("expected validation error for empty slug")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error got %v", err)
	}
}
