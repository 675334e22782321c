// Package notifications delivers operator alerts via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Alerts cover daemon lifecycle and task failures; user-facing
// feedback stays on the messaging transport.
//
// Extend this package if you need alternative transports; callers depend
// only on the Service interface.
package notifications
