package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ssargent/sdds/pkg/cflist"
	"github.com/ssargent/sdds/pkg/column"
)

// ExtractPayload locates the field called name in a raw document and decodes
// its payload without building a store. The search and the hex decode both
// run in c's staging buffer.
func ExtractPayload(c *cflist.Codec, doc []byte, name string) ([]byte, uint32, error) {
	el, ok, err := c.FindElement(doc, AttrName, name)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, fmt.Errorf("%w: field %q", cflist.ErrNotFound, name)
	}

	sizeText, ok := el.Attr(AttrSize)
	if !ok {
		return nil, 0, fmt.Errorf("field %q: %w %s", name, ErrMissingAttr, AttrSize)
	}
	size, err := strconv.ParseUint(sizeText, 10, 32)
	if err != nil {
		return nil, 0, fmt.Errorf("field %q: %w: %s=%q", name, ErrBadNumber, AttrSize, sizeText)
	}

	payload, err := c.DecodeHex(strings.TrimSpace(el.Text))
	if err != nil {
		return nil, 0, fmt.Errorf("field %q: %w", name, err)
	}
	if uint64(len(payload)) != column.ByteLen(size) {
		return nil, 0, fmt.Errorf("field %q: %w: %d bytes for %d bits", name, ErrPayloadLength, len(payload), size)
	}
	return payload, uint32(size), nil
}
