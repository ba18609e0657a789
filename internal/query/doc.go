// Package query evaluates user-selected filters against the joined
// dataset and computes the descriptive statistics behind the dashboard
// charts. All computations are stateless single passes over the filtered
// view; nothing here mutates a snapshot.
package query
