// Package cflist builds and mines fixed-buffer self-describing documents.
//
// # Document Format
//
//	<cFList><field type="TYPE" token="TOKEN">VALUE</field>...</cFList>
//
// TYPE is one of Integer, Boolean, String or HexBinary. TOKEN is a short
// caller-chosen identifier. VALUE is a decimal numeral, True/False, escaped
// text, or uppercase hex byte pairs.
//
// # Building
//
// A Builder writes into a buffer the caller sizes up front:
//
//	buf := make([]byte, 4096)
//	b := cflist.NewBuilder(buf)
//	b.Start()
//	b.AddString(cflist.TokenSerial, "Test")
//	b.AddSigned(cflist.TokenSize, -12345)
//	b.AddBool(cflist.TokenSupportsPower, true)
//	b.End()
//	doc := b.Bytes()
//
// Running out of room is a configuration bug, not a runtime condition: the
// Builder panics with a *CapacityError instead of returning an error. The
// same holds for tokens containing markup characters.
//
// # Extracting
//
// FindFieldByToken locates one field in a raw document without building a
// field store, and the typed accessors (String, Signed, Unsigned, Bool,
// HexBinary) decode its value. A token only matches an identical token: "A"
// never matches "AB". A missing token is reported with ErrNotFound; malformed
// input with a *markup.SyntaxError.
//
// # Staging Buffer
//
// Every multi-step conversion (escaping, token search, hex decoding) runs
// through one fixed-capacity staging buffer owned by a Codec. Acquisition is
// scoped and released on every exit path. Acquiring it again while it is held
// panics with ErrScratchBusy.
//
// A Codec is not safe for concurrent use. Default is shared by the package
// level helpers; concurrent callers take Codecs from a Pool instead.
package cflist
