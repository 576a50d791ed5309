// Package jobs runs background work in-process: a fixed worker pool
// drains an enqueue channel, and a scheduler ticks periodic jobs
// (upload cleanup, store health probe) into the same pool. Enqueue is
// non-blocking and reports false when the queue is full.
package jobs
