package stores

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leafline/dispensary-backend/pkg/db/models"
	pkgerrors "github.com/leafline/dispensary-backend/pkg/errors"
)

type stubStoreRepo struct {
	created *models.Store
	byID    map[uuid.UUID]*models.Store
}

func (s *stubStoreRepo) Create(_ context.Context, store *models.Store) (*models.Store, error) {
	store.ID = uuid.New()
	s.created = store
	return store, nil
}

func (s *stubStoreRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Store, error) {
	if store, ok := s.byID[id]; ok {
		return store, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStoreRepo) FindBySlug(_ context.Context, _ string) (*models.Store, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubStoreRepo) ListActive(_ context.Context) ([]models.Store, error) {
	return nil, nil
}

func TestCreateStore_SlugDerivedFromName(t *testing.T) {
	t.Parallel()

	repo := &stubStoreRepo{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	dto, err := svc.CreateStore(context.Background(), CreateStoreInput{Name: "Green Leaf Dispensary #2"})
	if err != nil {
		t.Fatalf("CreateStore returned error: %v", err)
	}
	if dto.Slug != "green-leaf-dispensary-2" {
		t.Fatalf("slug = %q", dto.Slug)
	}
	if !dto.IsActive {
		t.Fatal("new stores should default to active")
	}
}

func TestGetStore_NotFound(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&stubStoreRepo{})
	if err != nil {
		t.Fatalf("NewService returned error: %v", err)
	}

	_, err = svc.GetStore(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Green Leaf":        "green-leaf",
		"  Twisted! Roots ": "twisted-roots",
		"A&B":               "a-b",
	}
	for input, want := range cases {
		if got := Slugify(input); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}
