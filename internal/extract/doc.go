// Package extract turns DOM snapshots into listing entries and detail records.
//
// Both extractors are ranked fallback chains. The listing extractor picks one
// strategy per page (structured cards, then generic detail links, with
// context expansion for untitled links). The detail parser resolves each
// labeled field independently (structured label element, then a scan of the
// page's visible text lines). Selectors and label patterns are data, so a new
// markup variant is a table change rather than a control-flow change.
package extract
