package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"agentdex/internal/models"
	"agentdex/internal/repositories"
)

type CategoryService interface {
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryByCode(ctx context.Context, code string) (*models.Category, error)
	AddCategory(ctx context.Context, category models.Category) (*models.Category, error)
}

type categoryServiceImpl struct {
	categoryRepo repositories.CategoryRepository
}

func NewCategoryService(categoryRepo repositories.CategoryRepository) CategoryService {
	return &categoryServiceImpl{categoryRepo: categoryRepo}
}

func (s *categoryServiceImpl) GetCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error fetching categories")
		return nil, err
	}
	log.Debug().Int("count", len(categories)).Msg("Retrieved categories")
	return categories, nil
}

func (s *categoryServiceImpl) GetCategoryByCode(ctx context.Context, code string) (*models.Category, error) {
	category, err := s.categoryRepo.FindByCode(ctx, code)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn().Str("code", code).Msg("Category not found")
			return nil, fmt.Errorf("category not found")
		}
		log.Error().Err(err).Str("code", code).Msg("Error finding category by code")
		return nil, fmt.Errorf("failed to retrieve category")
	}
	return category, nil
}

func (s *categoryServiceImpl) AddCategory(ctx context.Context, category models.Category) (*models.Category, error) {
	category.Code = strings.TrimSpace(category.Code)
	category.Name = strings.TrimSpace(category.Name)
	if category.Code == "" || category.Name == "" {
		log.Warn().Msg("Code and Name are required for adding a category")
		return nil, fmt.Errorf("code and name are required")
	}

	if _, err := s.categoryRepo.FindByCode(ctx, category.Code); err == nil {
		log.Warn().Str("code", category.Code).Msg("Duplicate category code")
		return nil, fmt.Errorf("a category with this code already exists")
	} else if err != mongo.ErrNoDocuments {
		log.Error().Err(err).Str("code", category.Code).Msg("Error checking category code uniqueness")
		return nil, fmt.Errorf("failed to verify category code: %w", err)
	}

	category.ID = primitive.NewObjectID()
	created, err := s.categoryRepo.Create(ctx, &category)
	if err != nil {
		log.Error().Err(err).Str("code", category.Code).Msg("Error inserting category")
		return nil, err
	}

	log.Info().Str("code", category.Code).Msg("Category added successfully")
	return created, nil
}
