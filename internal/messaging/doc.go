// Package messaging abstracts the chat transport used to receive and
// deliver media. The daemon and pipeline depend only on the Client
// interface, so transports can be swapped without touching task handling.
// Rate-limit pushback from the transport surfaces as FloodWaitError and is
// classified as retryable by the services error taxonomy.
package messaging
