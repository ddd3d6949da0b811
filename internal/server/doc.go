// Package server provides HTTP routing, middleware and the lifecycle of the local preview server.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [MuxRouter] implementation uses gorilla/mux internally, so path templates such as
// "/movies/{id}" are matched and read back through [Vars]. Method filtering answers 405 for
// known paths requested with the wrong verb.
//
// # Middleware
//
// [RequestID] stamps every request with an X-Request-ID, [Logging] writes one structured line
// per request, [Recoverer] turns handler panics into 500s and [Instrument] feeds the
// prometheus collectors exposed on /metrics.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
//
// # Lifecycle
//
// [Server.Run] listens until its context is cancelled and then shuts down gracefully.
package server
