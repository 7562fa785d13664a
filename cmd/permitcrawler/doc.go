// Package main hosts the permitcrawler batch entrypoint.
//
// One invocation is one run: the existing source URLs are read from the
// configured table (Google Sheets by default, Postgres or memory otherwise),
// the gazette listing is traversed with a headless Chrome tab (or a plain HTTP
// collector in static mode), every new publication is parsed from its detail
// page and appended as one row. The run summary is printed to stdout as JSON.
//
// Configuration:
//   - PERMITS_CONFIG names an optional YAML/JSON/TOML config file.
//   - PERMITS_* variables override any key, e.g. PERMITS_SINK_BACKEND=postgres.
//   - SHEET_ID, SHEET_RANGE and GOOGLE_APPLICATION_CREDENTIALS are honored for
//     the Sheets table; a .env file in the working directory is loaded first.
//   - PERMITS_PIPELINE_DRY_RUN=true reads the real table but appends to an
//     in-memory copy.
//
// Optional side channels: detail HTML archived to a local directory or a GCS
// bucket, a Pub/Sub notification per written row, and a Prometheus textfile
// for node-exporter. Failures there are logged and never fail the run.
//
// Exit status is non-zero on configuration errors, when the existing keys
// cannot be read, when the start URL does not load, or on SIGINT/SIGTERM.
package main
