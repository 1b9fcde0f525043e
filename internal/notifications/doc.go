// Package notifications delivers push notifications for storyboard milestones
// via ntfy. The service degrades to a noop when no topic is configured, and
// individual event categories can be toggled off in configuration.
package notifications
