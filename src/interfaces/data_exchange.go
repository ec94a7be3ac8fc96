package interfaces

// -----------------------------------------------------------------------------
// IDataExchanger defining the interface for sharing session state with the UI (REST/Push).
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes an event to every listener subscribed to its session.
	Broadcast(payload interface{})

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
