package services

import (
	"context"
	"fmt"
	"strings"

	"walletgenie/internal/cache"
	"walletgenie/internal/core"
	"walletgenie/internal/log"
	"walletgenie/internal/store"
)

const categoriesQuery = "categories"

type CategoryService struct {
	repo   store.CategoryRepository
	max    int
	memo   *cache.Memo[core.CategorySet]
	logger *log.Logger
}

// NewCategoryService caps each kind at maxCategories entries. memo may be nil.
func NewCategoryService(repo store.CategoryRepository, maxCategories int, memo *cache.Memo[core.CategorySet], logger *log.Logger) *CategoryService {
	return &CategoryService{
		repo:   repo,
		max:    maxCategories,
		memo:   memo,
		logger: componentLogger(logger, log.ComponentCategory),
	}
}

func (s *CategoryService) List(ctx context.Context, userID string) (core.CategorySet, error) {
	load := func(ctx context.Context) (core.CategorySet, error) {
		set, err := s.repo.ListCategories(ctx, userID)
		return set, storeErr("list categories", err)
	}
	var (
		set core.CategorySet
		err error
	)
	if s.memo != nil {
		set, err = s.memo.Get(ctx, userID, categoriesQuery, load)
	} else {
		set, err = load(ctx)
	}
	if err != nil {
		return core.CategorySet{}, err
	}
	return set.Clone(), nil
}

// Add appends name to the user's list for kind. Duplicates are rejected
// before the cap is checked.
func (s *CategoryService) Add(ctx context.Context, userID string, kind core.Kind, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Invalid("name", core.ErrEmptyName)
	}
	if !kind.Valid() {
		return core.Invalid("kind", core.ErrInvalidKind)
	}
	if strings.EqualFold(name, core.OtherCategory) {
		return core.Invalid("name", fmt.Errorf("%q is reserved for free-text categories", core.OtherCategory))
	}

	current, err := s.repo.ListCategories(ctx, userID)
	if err != nil {
		return storeErr("list categories", err)
	}
	if current.Contains(kind, name) {
		return fmt.Errorf("category %q: %w", name, core.ErrAlreadyExists)
	}
	if len(current.Names(kind)) >= s.max {
		return fmt.Errorf("%s categories (max %d): %w", kind, s.max, core.ErrLimitReached)
	}

	if err := s.repo.AddCategory(ctx, userID, kind, name); err != nil {
		return storeErr("add category", err)
	}
	s.invalidate(userID)

	s.logger.InfoContext(ctx, "Category added",
		log.FieldUserID, userID,
		log.FieldKind, string(kind),
		log.FieldCategory, name)
	return nil
}

func (s *CategoryService) Delete(ctx context.Context, userID string, kind core.Kind, name string) error {
	if !kind.Valid() {
		return core.Invalid("kind", core.ErrInvalidKind)
	}
	name = strings.TrimSpace(name)
	if err := s.repo.DeleteCategory(ctx, userID, kind, name); err != nil {
		return storeErr(fmt.Sprintf("delete category %q", name), err)
	}
	s.invalidate(userID)

	s.logger.InfoContext(ctx, "Category deleted",
		log.FieldUserID, userID,
		log.FieldKind, string(kind),
		log.FieldCategory, name)
	return nil
}

// Max reports the per-kind cap.
func (s *CategoryService) Max() int { return s.max }

func (s *CategoryService) invalidate(userID string) {
	if s.memo != nil {
		s.memo.Invalidate(userID)
	}
}
