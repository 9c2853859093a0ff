package stores

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/leafline/dispensary-backend/pkg/db"
	"github.com/leafline/dispensary-backend/pkg/db/models"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
	"github.com/leafline/dispensary-backend/pkg/types"
)

// Service exposes storefront lookups and onboarding.
type Service interface {
	CreateStore(ctx context.Context, input CreateStoreInput) (*StoreDTO, error)
	GetStore(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	GetStoreBySlug(ctx context.Context, slug string) (*StoreDTO, error)
	ListStores(ctx context.Context) ([]StoreDTO, error)
}

// CreateStoreInput carries the fields accepted when onboarding a store.
type CreateStoreInput struct {
	Name    string        `json:"name" validate:"required"`
	Slug    string        `json:"slug"`
	Phone   *string       `json:"phone"`
	Email   *string       `json:"email"`
	Address types.Address `json:"address"`
}

// StoreDTO is the API-facing projection of a storefront.
type StoreDTO struct {
	ID       uuid.UUID     `json:"id"`
	Name     string        `json:"name"`
	Slug     string        `json:"slug"`
	Phone    *string       `json:"phone,omitempty"`
	Email    *string       `json:"email,omitempty"`
	Address  types.Address `json:"address"`
	IsActive bool          `json:"is_active"`
}

type storeRepo interface {
	Create(ctx context.Context, store *models.Store) (*models.Store, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindBySlug(ctx context.Context, slug string) (*models.Store, error)
	ListActive(ctx context.Context) ([]models.Store, error)
}

type service struct {
	repo storeRepo
}

// NewService wires the storefront service.
func NewService(repo storeRepo) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository is required")
	}
	return &service{repo: repo}, nil
}

var slugCleaner = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a store name.
func Slugify(name string) string {
	slug := slugCleaner.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

func (s *service) CreateStore(ctx context.Context, input CreateStoreInput) (*StoreDTO, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	slug := input.Slug
	if slug == "" {
		slug = Slugify(input.Name)
	}
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store slug is required")
	}

	store := &models.Store{
		Name:     input.Name,
		Slug:     slug,
		Phone:    input.Phone,
		Email:    input.Email,
		Address:  input.Address,
		IsActive: true,
	}
	created, err := s.repo.Create(ctx, store)
	if err != nil {
		if dbpkg.IsUniqueViolation(err, "stores_slug_key") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "store slug already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert store")
	}
	return newStoreDTO(created), nil
}

func (s *service) GetStore(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find store")
	}
	return newStoreDTO(store), nil
}

func (s *service) GetStoreBySlug(ctx context.Context, slug string) (*StoreDTO, error) {
	store, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find store")
	}
	return newStoreDTO(store), nil
}

func (s *service) ListStores(ctx context.Context) ([]StoreDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list stores")
	}
	result := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		result = append(result, *newStoreDTO(&rows[i]))
	}
	return result, nil
}

func newStoreDTO(store *models.Store) *StoreDTO {
	return &StoreDTO{
		ID:       store.ID,
		Name:     store.Name,
		Slug:     store.Slug,
		Phone:    store.Phone,
		Email:    store.Email,
		Address:  store.Address,
		IsActive: store.IsActive,
	}
}
