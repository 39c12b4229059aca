// Package notifications delivers harvest events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Each event family
// can be muted from the [notifications] section.
//
// All harvest code depends only on the Service interface.
package notifications
