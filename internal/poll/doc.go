// Package poll implements bounded polling against external systems that
// expose no completion callback. Waiting is always a fixed-interval loop with
// an explicit ceiling; the clock is injectable so loops are testable without
// real sleeps.
package poll
