/*
Package typedwitness provides a Go codec for EIP-712 typed messages carried in
CKB typed-transaction witnesses, built on go-ipld-prime
(https://github.com/ipld/go-ipld-prime/) and go-ethereum.

A typed message is described by a set of named struct types, a primary type,
a domain and a message value tree. The value tree is an ipld.Node; the codec
maps it onto the Molecule `Value`/`Struct` layout, embedding the EIP-712 type
hash of every struct and the domain separator, and wraps the result in an
`ExtendedWitness` envelope together with the signature ("lock").

Decoding is the mirror path: the wire form is walked against the same type
registry, every wire tag is checked against the declared type and every
embedded hash is recomputed and compared before a node is assembled.

Use the witness package for whole envelopes, the value package for single
values, and the plugin package to register the structural witness codec with
an IPFS node.
*/
package typedwitness
