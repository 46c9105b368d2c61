// Package notifications posts job outcomes to caller-supplied webhooks.
//
// A webhook fires once per terminal job. Delivery problems are reported to
// the caller for logging but never change the job's recorded outcome.
package notifications
