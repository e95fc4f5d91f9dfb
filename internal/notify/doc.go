// Package notify delivers "timer finished" alerts.
//
// Implementations satisfy timer.Notifier: a structured log line, an ntfy push
// for phones in the kitchen, and a fan-out that combines several of them.
package notify
