// Package web serves a local HTML preview of the merged catalog.
//
// The preview paints the same view model as the terminal UI. Listings come from
// [tasks.ListingEngine], cards and pagination from [formatter.RenderListing], and the
// result is executed through html/template.
//
// Routes
//
//	GET  /                  → merged listing (source, q, page, sort, genre, year query params)
//	GET  /movies/{id}       → local movie detail
//	GET  /tmdb/{id}         → external movie detail with an import form
//	POST /tmdb/{id}/import  → import, then reload the listing when it shows local rows
//	GET  /metrics           → prometheus collectors
//	GET  /healthz           → liveness
//
// Every request builds its own engine, so two browser tabs never cancel each other's loads.
package web
