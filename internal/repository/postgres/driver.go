package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
	"github.com/Pallavikandikanti846/InterCityGo/internal/repository"
)

type driverRow struct {
	ID            string  `db:"id"`
	Name          string  `db:"name"`
	Email         string  `db:"email"`
	Phone         string  `db:"phone"`
	CarModel      string  `db:"car_model"`
	IsOnline      bool    `db:"is_online"`
	TotalEarnings float64 `db:"total_earnings"`
}

// DriverRepository resolves dedicated driver records from the drivers table.
type DriverRepository struct {
	db *sqlx.DB
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{db: sqlx.NewDb(db, "postgres")}
}

// Kind returns domain.DriverKindRecord.
func (r *DriverRepository) Kind() domain.DriverKind {
	return domain.DriverKindRecord
}

// GetDriver retrieves a driver record by ID.
func (r *DriverRepository) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	query := `
		SELECT id, name, COALESCE(email, '') AS email, COALESCE(phone, '') AS phone,
		       car_model, is_online, total_earnings
		FROM drivers WHERE id = $1
	`

	var row driverRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &domain.Driver{
		ID:            row.ID,
		Kind:          domain.DriverKindRecord,
		Name:          row.Name,
		Email:         row.Email,
		Phone:         row.Phone,
		CarModel:      row.CarModel,
		IsOnline:      row.IsOnline,
		TotalEarnings: row.TotalEarnings,
	}, nil
}

// Ensure DriverRepository implements repository.DriverSource.
var _ repository.DriverSource = (*DriverRepository)(nil)
