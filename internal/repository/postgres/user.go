package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
	"github.com/Pallavikandikanti846/InterCityGo/internal/repository"
)

const userColumns = `id, name, email, COALESCE(phone, '') AS phone, role, created_at`

// userRow maps a users row.
type userRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		Role:      domain.UserRole(r.Role),
		CreatedAt: r.CreatedAt,
	}
}

// UserRepository implements repository.UserRepository using PostgreSQL.
// It also serves user accounts with the driver role as a driver source.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: sqlx.NewDb(db, "postgres")}
}

// GetByIDs retrieves the users that exist among ids, keyed by ID.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	users := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return nil, err
	}
	for _, row := range rows {
		users[row.ID] = row.toDomain()
	}
	return users, nil
}

// Kind returns domain.DriverKindUser.
func (r *UserRepository) Kind() domain.DriverKind {
	return domain.DriverKindUser
}

// GetDriver retrieves a user account holding the driver role.
func (r *UserRepository) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND role = $2`, id, domain.UserRoleDriver)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &domain.Driver{
		ID:    row.ID,
		Kind:  domain.DriverKindUser,
		Name:  row.Name,
		Email: row.Email,
		Phone: row.Phone,
	}, nil
}

// Ensure UserRepository implements both read interfaces.
var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.DriverSource   = (*UserRepository)(nil)
)
