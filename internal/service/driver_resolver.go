package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pallavikandikanti846/InterCityGo/internal/domain"
	"github.com/Pallavikandikanti846/InterCityGo/internal/repository"
)

// DriverResolver unifies the driver identity sources behind one lookup.
type DriverResolver struct {
	sources []repository.DriverSource
}

// NewDriverResolver creates a resolver over the given sources. Sources are
// tried in order when classifying an ID.
func NewDriverResolver(sources ...repository.DriverSource) *DriverResolver {
	return &DriverResolver{sources: sources}
}

// Classify determines which source backs driverID. An ID unknown to every
// source is tagged as a user-account driver.
func (r *DriverResolver) Classify(ctx context.Context, driverID string) (domain.DriverRef, error) {
	if driverID == "" {
		return domain.DriverRef{}, ErrInvalidDriverID
	}

	driver, err := r.Lookup(ctx, driverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.DriverRef{ID: driverID, Kind: domain.DriverKindUser}, nil
		}
		return domain.DriverRef{}, err
	}
	return domain.DriverRef{ID: driverID, Kind: driver.Kind}, nil
}

// Resolve loads the driver a reference points at.
func (r *DriverResolver) Resolve(ctx context.Context, ref domain.DriverRef) (*domain.Driver, error) {
	for _, src := range r.sources {
		if src.Kind() == ref.Kind {
			return src.GetDriver(ctx, ref.ID)
		}
	}
	return nil, fmt.Errorf("no driver source for kind %q", ref.Kind)
}

// Lookup returns the driver with driverID from the first source that has it.
func (r *DriverResolver) Lookup(ctx context.Context, driverID string) (*domain.Driver, error) {
	for _, src := range r.sources {
		driver, err := src.GetDriver(ctx, driverID)
		if err == nil {
			return driver, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("lookup driver %s in %s source: %w", driverID, src.Kind(), err)
		}
	}
	return nil, repository.ErrNotFound
}
