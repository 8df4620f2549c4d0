// internal/adapters/db/reference_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/panuwatk/stockledger-be/internal/core/domain"
	"github.com/panuwatk/stockledger-be/internal/core/ports"
)

// categoryRepository implements ports.CategoryRepository
type categoryRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *Database, logger *slog.Logger) ports.CategoryRepository {
	return &categoryRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "category")),
	}
}

func (r *categoryRepository) Save(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		category.ID, category.Name, category.Description,
		category.CreatedAt, category.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ValidationError{Field: "name", Message: fmt.Sprintf("category already exists: %s", category.Name)}
		}
		return fmt.Errorf("failed to save category: %w", err)
	}

	return nil
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := `
		UPDATE categories SET name = $2, description = $3, updated_at = $4
		WHERE id = $1`

	category.UpdatedAt = time.Now()
	tag, err := r.db.Exec(ctx, query,
		category.ID, category.Name, category.Description, category.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "category", ID: category.ID.String()}
	}

	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `SELECT id, name, description, created_at, updated_at FROM categories WHERE id = $1`

	category := &domain.Category{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&category.ID, &category.Name, &category.Description,
		&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	return category, nil
}

func (r *categoryRepository) FindAll(ctx context.Context) ([]*domain.Category, error) {
	query := `SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		category := &domain.Category{}
		if err := rows.Scan(
			&category.ID, &category.Name, &category.Description,
			&category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return categories, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "category", ID: id.String()}
	}

	r.logger.InfoContext(ctx, "category deleted", slog.String("id", id.String()))
	return nil
}

// supplierRepository implements ports.SupplierRepository
type supplierRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *Database, logger *slog.Logger) ports.SupplierRepository {
	return &supplierRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "supplier")),
	}
}

func (r *supplierRepository) Save(ctx context.Context, supplier *domain.Supplier) error {
	query := `
		INSERT INTO suppliers (id, name, contact_person, phone, email, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		supplier.ID, supplier.Name, supplier.ContactPerson, supplier.Phone,
		supplier.Email, supplier.Address, supplier.CreatedAt, supplier.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ValidationError{Field: "name", Message: fmt.Sprintf("supplier already exists: %s", supplier.Name)}
		}
		return fmt.Errorf("failed to save supplier: %w", err)
	}

	return nil
}

func (r *supplierRepository) Update(ctx context.Context, supplier *domain.Supplier) error {
	query := `
		UPDATE suppliers SET name = $2, contact_person = $3, phone = $4,
			email = $5, address = $6, updated_at = $7
		WHERE id = $1`

	supplier.UpdatedAt = time.Now()
	tag, err := r.db.Exec(ctx, query,
		supplier.ID, supplier.Name, supplier.ContactPerson, supplier.Phone,
		supplier.Email, supplier.Address, supplier.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "supplier", ID: supplier.ID.String()}
	}

	return nil
}

func (r *supplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Supplier, error) {
	query := `
		SELECT id, name, contact_person, phone, email, address, created_at, updated_at
		FROM suppliers WHERE id = $1`

	supplier := &domain.Supplier{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&supplier.ID, &supplier.Name, &supplier.ContactPerson, &supplier.Phone,
		&supplier.Email, &supplier.Address, &supplier.CreatedAt, &supplier.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find supplier: %w", err)
	}

	return supplier, nil
}

func (r *supplierRepository) FindAll(ctx context.Context) ([]*domain.Supplier, error) {
	query := `
		SELECT id, name, contact_person, phone, email, address, created_at, updated_at
		FROM suppliers ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var suppliers []*domain.Supplier
	for rows.Next() {
		supplier := &domain.Supplier{}
		if err := rows.Scan(
			&supplier.ID, &supplier.Name, &supplier.ContactPerson, &supplier.Phone,
			&supplier.Email, &supplier.Address, &supplier.CreatedAt, &supplier.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, supplier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return suppliers, nil
}

func (r *supplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "supplier", ID: id.String()}
	}

	r.logger.InfoContext(ctx, "supplier deleted", slog.String("id", id.String()))
	return nil
}
