// Package dataset builds and owns the working dataset: the inner join of
// chart events, item dictionary and ICU stays, with derived elapsed ICU
// hours. The Store keeps the join result as an immutable Snapshot and
// rebuilds it on demand; filtering and statistics live in internal/query.
package dataset
