// Package tasks turns raw catalog responses into the merged listing the painters draw.
//
// # Classification
//
// [Classify] tags each record exactly once as local or external. Local requires a
// "local" or "admin" hint and an id below [LocalIDCutoff]; everything else is external.
// [ClassifyBatch] stamps the hint of the batch a record was fetched in before classifying,
// so the hint a backend row carries never decides its origin on its own.
//
// # Listings
//
// [ListingEngine.LoadPage] takes an explicit [ViewState] and returns a [models.Listing]:
//
//  1. Search mode (non-empty query): local matches then external matches, one page.
//  2. All: local and external popular fetched concurrently, local first, external page count.
//  3. Local: local catalog with genre and year filters, one page.
//  4. External: popular or top rated, upstream page count.
//
// Every load takes a new generation and cancels the load it replaces. A replaced load
// returns [shared.ErrStaleResponse] so a slow response never overwrites a newer one.
//
// # Imports
//
// [ListingEngine.Import] imports one movie and reloads the listing when the current
// source shows local rows. [ListingEngine.BulkImport] runs a bounded worker pool throttled
// with golang.org/x/time/rate, reporting [ProgressUpdate] values over a non-blocking
// channel and writing each outcome to an optional [ImportRecorder].
package tasks
