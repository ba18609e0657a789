// Package dataprocessing ingests the three MIMIC-III-shaped source
// tables (chart events, item dictionary, ICU stays) from CSV files.
//
// Parsing resolves columns by header name, case-insensitively, so column
// order never matters. Rows flagged as erroneous (error == 1) and rows
// with unparseable numbers or timestamps are dropped during ingestion
// and counted in ParseStats; a file missing a required column fails hard.
package dataprocessing
