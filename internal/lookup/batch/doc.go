// Package batch splits lookup requests into fixed-size chunks and runs them
// one after another, reporting progress after each chunk.
//
// Chunks are processed sequentially: a lookup against one catalog snapshot
// never fans out, and results come back in input order.
package batch
