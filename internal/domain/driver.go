package domain

// DriverKind tags which identity source a driver reference points at.
type DriverKind string

const (
	// DriverKindUser is a generic user account with the driver role.
	DriverKindUser DriverKind = "User"
	// DriverKindRecord is a dedicated driver record.
	DriverKindRecord DriverKind = "Driver"
)

// Valid reports whether k is a known driver kind.
func (k DriverKind) Valid() bool {
	return k == DriverKindUser || k == DriverKindRecord
}

// DriverRef is a polymorphic reference to the driver owning a trip.
type DriverRef struct {
	ID   string
	Kind DriverKind
}

// Driver is the resolved public view of a driver, regardless of source.
type Driver struct {
	ID            string
	Kind          DriverKind
	Name          string
	Email         string
	Phone         string
	CarModel      string
	IsOnline      bool
	TotalEarnings float64 // Running total; only driver records carry one
}
