package gateway

import (
	"net/http"

	"github.com/NMBawiskar/ros-data-publisher/component"
)

// Gateway defines the interface for protocol bridge components that
// expose topic streams to external clients.
type Gateway interface {
	// Discoverable interface provides component metadata and health
	component.Discoverable

	// RegisterHTTPHandlers registers the gateway's HTTP routes with a
	// central HTTP server.
	//
	// The prefix parameter is the URL path prefix for this gateway
	// instance; "/" mounts it at the root.
	RegisterHTTPHandlers(prefix string, mux *http.ServeMux)
}

// HTTPHandler is the interface for components that can register HTTP
// handlers with a central HTTP server.
type HTTPHandler interface {
	RegisterHTTPHandlers(prefix string, mux *http.ServeMux)
}
