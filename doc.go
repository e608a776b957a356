// Copyright 2015 Andrew E. Bruno. All rights reserved.
// Use of this source code is governed by a BSD style
// license that can be found in the LICENSE file.

// Package binseq implements the BINSEQ family of compact binary container
// formats for DNA sequences: BQ (fixed-length records, no quality, dense
// 2-bit packing, O(1) random access) and VBQ (variable-length records with
// optional quality scores and headers, block-structured with an explicit
// index).
//
// Both flavors support single and paired reads. Sequences are packed two
// bits per nucleotide, little-endian within each 64-bit limb. Files are
// write-once: a Writer appends records and must be explicitly Finalized;
// Readers open a finalized file read-only and never mutate it.
//
// ProcessParallel partitions a reader's records across N workers, each
// driving its own Processor instance with no synchronization on the hot
// path. BQ records alias the memory mapping when one is available; VBQ
// records alias the worker's own decompressed block buffer.
package binseq
