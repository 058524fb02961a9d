/*
Package runs implements run record management and persistence orchestration.

It provides high-level abstractions for handling concurrent access to run
records across multiple replicas, integrating local per-run locks with
distributed locking and long-term storage adapters. The main chain writes a
record when it settles and the background phase writes again later, so two
writers touching the same record is the normal case, not the exception.
*/
package runs
