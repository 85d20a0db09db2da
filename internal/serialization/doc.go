// Package serialization provides the .hastings file format for saving and loading
// vocabularies.
//
//	Format Structure:
//	  [4 bytes: Magic "HSTK"]
//	  [4 bytes: Version (uint32 LE)]
//	  [4 bytes: Flags (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON metadata]
//	  [Body: rank table in tiktoken text format, zstd-compressed if FlagCompressed]
//
// The header records the vocabulary size, pattern, control tokens with their
// reserved ids, the vocabulary fingerprint and a SHA-256 checksum of the
// uncompressed body. Readers reject files whose checksum or fingerprint does not
// match, so a loaded vocabulary always encodes exactly like the one that was saved.
//
// Example usage:
//
//	// Save a vocabulary
//	if err := serialization.Save("hastings.hastings", v, serialization.WriterOptions{Compress: true}); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load it back
//	v, info, err := serialization.Load("hastings.hastings", serialization.ReaderOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
package serialization
