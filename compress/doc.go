// Package compress provides the payload codecs used by the store envelope.
//
// A serialized trie is a dense node array with many repeated lead units and
// short jump deltas, which general-purpose compressors handle well.
// Compression applies to the whole payload after serialization; the chosen
// algorithm is recorded in the envelope header so readers pick the matching
// decompressor automatically.
//
// Supported algorithms:
//   - None: no compression, payload stored verbatim
//   - Zstd: best ratio, moderate speed; good default for tries on disk
//   - S2: balanced ratio and speed
//   - LZ4: fastest decompression, moderate ratio; good for read-heavy use
//
// All codecs are stateless values and safe for concurrent use; internal
// encoder and decoder state is pooled where the underlying library
// benefits from reuse.
package compress
