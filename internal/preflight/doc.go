// Package preflight provides readiness checks for the external services and
// filesystem paths the harvester depends on.
//
// These checks run in two contexts:
//   - "tubeharvest run" calls RunAll before touching any channel and aborts
//     when a check fails.
//   - "tubeharvest status" renders the same results next to config-only
//     summaries of the feed, ledger, and archive backends.
//
// Checks for backends that are not selected are skipped.
package preflight
