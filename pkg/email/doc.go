// Package email sends the transactional messages triggered by billing
// events. Postmark delivers in production; DevSender writes messages to disk
// for local development. Message bodies are rendered by the templates
// subpackage.
package email
