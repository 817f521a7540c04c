// Package snowql is a client for Snowflake's cloud data warehouse HTTPS
// query API.
//
// It authenticates a user, opens a logical session, submits SQL
// statements, and materializes result sets into typed rows. The
// package covers session establishment, synchronous and asynchronous
// query execution, out-of-band result chunk download with bounded
// parallelism, and cell-level decoding from both the row-oriented JSON
// and columnar Arrow IPC result encodings.
//
// SQL parsing, prepared-statement binding, connection pooling, and
// file staging (PUT/COPY) are out of scope: callers submit literal SQL
// text and receive fully materialized result sets.
package snowql
