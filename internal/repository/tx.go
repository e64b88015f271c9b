package repository

import "context"

// Repositories groups repositories that share one unit of work.
type Repositories struct {
	Requests RequestRepository
	Vehicles VehicleRepository
	Routes   RouteRepository
	Stops    StopRepository
}

// TxManager runs fn inside a single transaction. The transaction commits when
// fn returns nil and rolls back otherwise.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
