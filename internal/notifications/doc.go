// Package notifications sends run lifecycle events to an ntfy topic.
//
// The service is a no-op unless a topic is configured, and individual event
// kinds can be toggled off without removing the topic. Send failures are
// reported to callers but never abort a run.
package notifications
