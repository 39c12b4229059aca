// Package ledger persists the per-channel record of processed feed items.
//
// Every record is keyed by (video id, upload-date text). Merging a batch
// deduplicates on that key and keeps the newest write, so re-observing an
// item replaces its earlier status rather than appending a second row. The
// eligibility filter consults Lookup to skip items whose most recent record
// is SUCCESS; nothing in the harvester ever deletes records.
//
// Three backends implement Ledger and share MergeRecords as the merge rule:
// SQLite (default, one database for every channel), a CSV file in each
// channel workspace compatible with earlier installs, and Redis hashes.
package ledger
