package service

import (
	"context"

	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var categoriesTracer = otel.Tracer("service/categories")

// CategoriesService orchestrates category operations.
type CategoriesService struct {
	store  port.CategoryStore
	logger *zap.Logger
}

// NewCategoriesService creates a new categories service.
func NewCategoriesService(store port.CategoryStore, logger *zap.Logger) *CategoriesService {
	return &CategoriesService{store: store, logger: logger}
}

func (s *CategoriesService) ListCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	ctx, span := categoriesTracer.Start(ctx, "CategoriesService.ListCategories")
	defer span.End()

	return s.store.ListCategories(ctx, userID)
}

func (s *CategoriesService) CreateCategory(ctx context.Context, userID string, req *domain.CategoryRequest) (*domain.Category, error) {
	ctx, span := categoriesTracer.Start(ctx, "CategoriesService.CreateCategory")
	defer span.End()

	if req.Description == "" {
		return nil, &domain.ErrValidation{Field: "description", Message: "Descrição é obrigatória"}
	}
	if req.Type != domain.TypeReceita && req.Type != domain.TypeDespesa {
		return nil, &domain.ErrValidation{Field: "type", Message: "Tipo deve ser RECEITA ou DESPESA"}
	}

	return s.store.CreateCategory(ctx, domain.Category{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: req.Description,
		Type:        req.Type,
		Active:      true,
	})
}

func (s *CategoriesService) UpdateCategory(ctx context.Context, userID, categoryID string, req *domain.CategoryRequest) (*domain.Category, error) {
	ctx, span := categoriesTracer.Start(ctx, "CategoriesService.UpdateCategory")
	defer span.End()

	if req.Type != "" && req.Type != domain.TypeReceita && req.Type != domain.TypeDespesa {
		return nil, &domain.ErrValidation{Field: "type", Message: "Tipo deve ser RECEITA ou DESPESA"}
	}

	fields := map[string]any{}
	if req.Description != "" {
		fields["description"] = req.Description
	}
	if req.Type != "" {
		fields["type"] = req.Type
	}
	if len(fields) > 0 {
		if err := s.store.UpdateCategory(ctx, userID, categoryID, fields); err != nil {
			return nil, err
		}
	}
	return s.store.GetCategory(ctx, userID, categoryID)
}

func (s *CategoriesService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	ctx, span := categoriesTracer.Start(ctx, "CategoriesService.DeleteCategory")
	defer span.End()

	if _, err := s.store.GetCategory(ctx, userID, categoryID); err != nil {
		return err
	}
	return s.store.DeleteCategory(ctx, userID, categoryID)
}
