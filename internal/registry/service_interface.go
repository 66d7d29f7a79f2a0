package registry

// Service is the interface for the optional ground services that run
// alongside a flight.
type Service interface {
	Start() error
	Stop() error
}
