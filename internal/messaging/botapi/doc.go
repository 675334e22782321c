// Package botapi implements the messaging.Client contract over the
// Telegram Bot API with plain HTTP and JSON. Flood-control responses
// (HTTP 429 with a retry_after parameter) are mapped to
// messaging.FloodWaitError so the pipeline's bounded backoff applies.
package botapi
