// Package store provides the record-store collaborator interface the core
// depends on, with in-memory and Postgres implementations.
package store

import (
	"context"
	"errors"

	"github.com/warelink/mpbridge/internal/model"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("not found")

// Store is the persistence interface consumed by the shipping service and
// the tracking reconciler: lookup by field equality, field writes with an
// attached activity log, and the invoice sequence generator.
type Store interface {
	// Pickings
	FindPicking(ctx context.Context, origin, name string) (*model.Picking, error)
	GetPicking(ctx context.Context, id string) (*model.Picking, error)
	UpdatePicking(ctx context.Context, id string, patch model.PickingPatch) error
	AppendPickingNote(ctx context.Context, id, note string) error

	// WithPickingLock serializes fn against concurrent mutations of the
	// same picking. The reconciler's match-then-mutate sequence runs under
	// it as one logical transaction.
	WithPickingLock(ctx context.Context, id string, fn func(ctx context.Context) error) error

	// Carrier configuration records
	GetCarrierMethod(ctx context.Context, id string) (*model.CarrierMethod, error)
	GetPackageType(ctx context.Context, id string) (*model.PackageType, error)
	FindPackageType(ctx context.Context, shipperCode, carrierType string) (*model.PackageType, error)
	FindCarrierMethodByPackageType(ctx context.Context, packageTypeID, deliveryType string) (*model.CarrierMethod, error)
	FindCarrierMethodByNameOrType(ctx context.Context, code string) (*model.CarrierMethod, error)

	// Orders and partners
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	GetPartner(ctx context.Context, id string) (*model.Partner, error)

	// Sequences
	NextInvoiceNumber(ctx context.Context) (string, error)
}
