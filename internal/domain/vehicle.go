package domain

// VehicleStatus represents the current availability of a vehicle.
type VehicleStatus string

const (
	VehicleStatusIdle    VehicleStatus = "IDLE"
	VehicleStatusOnRoute VehicleStatus = "ON_ROUTE"
)

// Vehicle is a driver together with the car they operate. The vehicle id is
// also the driver identity used on the realtime channel.
type Vehicle struct {
	ID     string
	Name   string
	Status VehicleStatus
}
