// Package replicate provides the HTTP client for the hosted image and video
// generation models. Predictions are created with a blocking Prefer header and
// polled until terminal, with retries on transient transport and rate-limit
// failures.
package replicate
