// Package models defines the catalog entities exchanged with the backend and the entities persisted locally.
//
// The package contains three categories of types:
//
// 1. Wire types: Data Transfer Objects decoded from backend responses
//   - [MovieRecord] : movie row shared by the local and external catalogs
//   - [ExternalPage] : one page of an external catalog listing
//   - [Review], [User], [Preferences], [ChatMessage] and friends
//
// 2. Listing types: produced by the aggregator and consumed by renderers
//   - [ClassifiedRecord] : record tagged once with its [Origin] and navigation id
//   - [PageDescriptor] : current and total page, both at least 1
//   - [Listing] : one merged page
//
// 3. Persistent Entities: rows kept in the local SQLite store
//   - [Session] : saved login (tokens and cookies) for a backend
//   - [ImportRecord] : audit entry for an external import
//
// Persistent entities implement the [Model] interface and are stored through [Repository].
package models
