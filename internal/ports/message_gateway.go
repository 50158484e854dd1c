package ports

// MessageGateway defines the interface for message ingress surfaces
type MessageGateway interface {
	// Start starts the gateway
	Start() error

	// Stop stops the gateway
	Stop() error
}
