/*
Package witness builds and parses ExtendedWitness envelopes.

The envelope API works on typed data: EncodeMessage turns a typed data
document into a wire EIP712 message, BuildMessageWitness wraps a message and
a lock (signature) into a SighashWithAction witness, and ParseMessageWitness
and DecodeMessage reverse the two steps, checking every embedded hash.

Encode and Decode are a go-ipld-prime codec over the structural view of a
witness, a keyed union that mirrors the wire layout one to one without
resolving types. They are registered under MultiCodecType by the plugin package.
*/
package witness
