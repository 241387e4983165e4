// Package storage archives encoded documents in a pebble database.
//
// Every document is stored under a KSUID key, so iteration follows creation
// time at one second granularity. The value is a framed record:
//
//	[CRC32(4)][Kind(1)][NameSize(4)][BodySize(4)][Timestamp(8)][Name][Body]
//
// All integers are little-endian. The CRC32 (IEEE) covers every byte after the
// CRC field itself, so a flipped bit anywhere in the header, name or body is
// reported as ErrChecksum on read.
//
// The body is the document text exactly as produced by the document or cflist
// packages; the frame only adds the metadata the archive needs to list and
// validate entries.
package storage
