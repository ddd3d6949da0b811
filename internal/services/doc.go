// Package services implements the gateway to the catalog backend.
//
// # Gateway Interfaces
//
// [CatalogGateway] is the narrow surface the listing engine depends on: local listing,
// external search, popular and top-rated pages, external details and import.
// [Gateway] adds movie administration, reviews, recommendations, the current account and user administration.
//
// # Backend Implementation
//
// [BackendService] talks JSON over HTTP to the backend's /api routes.
//
// Authentication is a JWT pair obtained from /api/login/. The pair is held as an [oauth2.Token] behind an
// [oauth2.ReuseTokenSource]; once the access token's exp claim passes it is refreshed through
// /api/token/refresh/. Browser sessions can be used instead by seeding the cookie jar.
//
// Mutating requests carry the csrftoken cookie value in the X-CSRFToken header and a Referer of the backend origin.
// A [rate.Limiter] throttles every call. Nothing is retried.
//
// # Error Handling
//
// Every failed call returns a [*RequestFailed] whose Kind is derived from the status code.
// [RequestFailed.UserMessage] and [DisplayMessage] produce the text shown to users.
// RequestFailed also unwraps to shared sentinels:
//   - [shared.ErrNotAuthenticated] : 401
//   - [shared.ErrForbidden] : 403
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrInvalidInput] : 400 and 422
//   - [shared.ErrServiceUnavailable] : no response
//   - [shared.ErrAPIRequest] : anything else
//
// Cancelled contexts are returned as is, never as a network failure.
//
// # Metrics
//
// [Metrics] counts requests and latency per route template (e.g. /movies/tmdb/{id}/).
package services
