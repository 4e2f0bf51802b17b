// Package consolidation turns raw document fragments into paragraph records.
//
// Consolidate is a single left-to-right fold over one document's fragments:
//   - Default-clause fragments are held back and prefixed onto the next
//     substantive fragment
//   - Fragments shorter than the minimum word count are merged into the
//     previous paragraph, which keeps its id
//   - A default clause with no successor is emitted as an orphan paragraph
//
// The Pipeline type consolidates many documents concurrently using a worker
// pool. Each document keeps its own state, and the merged result is always
// concatenated in document order.
package consolidation
