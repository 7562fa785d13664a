// Package gazette defines the domain types, collaborator interfaces, and shared
// helpers of the building-permit crawler: listing entries, parsed detail
// records, DOM snapshots, the run summary, and the error taxonomy used by the
// extraction, pagination, deduplication, and sink stages.
package gazette
