/*
Package maglev implements Maglev consistent hashing lookup table.

In general, consistent hashing is all about mapping of object from a very big
set of values (e.g. request id) to object from a quite small set (e.g. server
address). The word "consistent" means that it can produce consistent mapping on
different machines or processes without additional state exchange and
communication.

Maglev is the hashing scheme used by Google's network load balancer. For the
original paper please see this document:
https://static.googleusercontent.com/media/research.google.com/en//pubs/archive/44824.pdf

There are three goals for this implementation:
1) To keep lookups O(1): mapping a key to a node is a single hash and a single
array access over a prime-sized lookup table.
2) To spread keys almost uniformly: each node owns m/n table slots up to a
difference of one slot.
3) To keep remapping minimal when membership changes: rebuilding the table
without one node at the same capacity relocates only a small fraction of keys,
unlike naive modulo hashing which relocates nearly all of them.

A Table is immutable after construction, so concurrent lookups need no
synchronization. Membership changes are handled by building a new Table and
atomically swapping the reference; pass the previous table's Capacity() to the
new build to preserve the minimal disruption property.
*/
package maglev
