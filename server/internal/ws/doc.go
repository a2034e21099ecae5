// Package ws implements the WebSocket hub for lemonwatch-server.
//
// Hub manages a set of connected clients and pushes the aggregated lemon
// view to all of them on a configurable interval (server.stream_interval).
//
// New(viewer, interval) creates a Hub.
// Hub.Run(ctx) starts the broadcast ticker; it blocks until ctx is cancelled,
// then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket, sends the current
// view immediately on connect, then streams updates on each tick.
//
// Message format sent to clients:
//
//	{
//	  "event": "view",
//	  "data":  { /* same schema as GET /api/data */ }
//	}
//
// The view is built with the thresholds configured at the time of the tick.
// Ticks with no connected clients do not read the source.
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The endpoint is mounted at /ws/stream by the server.
package ws
