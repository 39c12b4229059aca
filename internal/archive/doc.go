// Package archive mirrors a channel workspace into a durable remote store.
//
// Every backend exposes the same two idempotent operations: folder
// lookup-or-create keyed by (name, parent) and upload with skip-if-exists
// semantics keyed by (file name, folder). Sync walks a workspace, uploads
// each finished artifact, and removes the local copy once the store has
// reported success.
package archive
