package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pankaj085/lotuslynx/internal/domain"
)

// Compile-time interface assertions.
var (
	_ UserRepository    = (*PostgresUserRepo)(nil)
	_ ProductRepository = (*PostgresProductRepo)(nil)
)

// PostgresUserRepo implements UserRepository on a pgx pool.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

const selectUserSQL = `SELECT id, username, email, password_hash, role, disabled, created_at FROM users`

func (r *PostgresUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRow(ctx, selectUserSQL+` WHERE username = $1`, username)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRow(ctx, selectUserSQL+` WHERE email = $1`, email)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.db.QueryRow(ctx, selectUserSQL+` WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

const insertUserSQL = `INSERT INTO users (id, username, email, password_hash, role, disabled)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, username, email, password_hash, role, disabled, created_at`

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	row := r.db.QueryRow(ctx, insertUserSQL,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.Disabled,
	)

	created, err := scanUser(row)
	if err != nil {
		if conflict := classifyUserConflict(err); conflict != nil {
			return domain.User{}, conflict
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

func (r *PostgresUserRepo) SetRole(ctx context.Context, id int64, role domain.Role) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, string(role), id)
	if err != nil {
		return fmt.Errorf("set user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set user role: %w", pgx.ErrNoRows)
	}
	return nil
}

func (r *PostgresUserRepo) SetDisabled(ctx context.Context, id int64, disabled bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET disabled = $1 WHERE id = $2`, disabled, id)
	if err != nil {
		return fmt.Errorf("set user disabled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set user disabled: %w", pgx.ErrNoRows)
	}
	return nil
}

// classifyUserConflict maps 23505 unique violations to the conflict
// sentinels by constraint name; anything else is left to the caller.
func classifyUserConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return nil
	}
	if strings.Contains(pgErr.ConstraintName, "email") {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.Disabled,
		&user.CreatedAt,
	); err != nil {
		return domain.User{}, err
	}
	user.Role = domain.ParseRole(role)
	return user, nil
}

// PostgresProductRepo implements ProductRepository on a pgx pool.
type PostgresProductRepo struct {
	db *pgxpool.Pool
}

func NewPostgresProductRepo(pool *pgxpool.Pool) *PostgresProductRepo {
	return &PostgresProductRepo{db: pool}
}

const selectProductSQL = `SELECT id, name, description, price, category, COALESCE(image_url, ''), created_at FROM products`

func (r *PostgresProductRepo) List(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.MinPrice != nil {
		args = append(args, *filter.MinPrice)
		conds = append(conds, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.MaxPrice != nil {
		args = append(args, *filter.MaxPrice)
		conds = append(conds, fmt.Sprintf("price <= $%d", len(args)))
	}

	query := selectProductSQL
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *PostgresProductRepo) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	row := r.db.QueryRow(ctx, selectProductSQL+` WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

const insertProductSQL = `INSERT INTO products (id, name, description, price, category, image_url)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
RETURNING id, name, description, price, category, COALESCE(image_url, ''), created_at`

func (r *PostgresProductRepo) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	row := r.db.QueryRow(ctx, insertProductSQL,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Category,
		product.ImageURL,
	)
	created, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// Update builds an explicit SET list from the non-nil patch fields.
func (r *PostgresProductRepo) Update(ctx context.Context, id int64, patch domain.ProductUpdate) (domain.Product, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Price != nil {
		set("price", *patch.Price)
	}
	if patch.Category != nil {
		set("category", *patch.Category)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE products SET %s WHERE id = $%d RETURNING id, name, description, price, category, COALESCE(image_url, ''), created_at`,
		strings.Join(sets, ", "), len(args),
	)

	row := r.db.QueryRow(ctx, query, args...)
	updated, err := scanProduct(row)
	if err != nil {
		return domain.Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

func (r *PostgresProductRepo) SetImageURL(ctx context.Context, id int64, imageURL string) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET image_url = NULLIF($1, '') WHERE id = $2`, imageURL, id)
	if err != nil {
		return fmt.Errorf("set product image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set product image: %w", pgx.ErrNoRows)
	}
	return nil
}

func (r *PostgresProductRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete product: %w", pgx.ErrNoRows)
	}
	return nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var product domain.Product
	if err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Category,
		&product.ImageURL,
		&product.CreatedAt,
	); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}
