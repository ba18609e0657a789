// Package exporter serializes filtered observation views for download,
// as CSV (streamed or written under the exports directory) and as Excel
// workbooks with a raw sheet plus per-label summary statistics.
package exporter
