package cmd

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/sdds/pkg/cflist"
	"github.com/ssargent/sdds/pkg/fields"
)

// fieldsManifest describes a whole-store document:
//
//	name: sensor
//	fields:
//	  - name: A
//	    size_bits: 8
//	    payload: "01"
//	    modifier: 0
type fieldsManifest struct {
	Name   string          `yaml:"name"`
	Fields []manifestField `yaml:"fields"`
}

type manifestField struct {
	Name     string `yaml:"name"`
	SizeBits uint32 `yaml:"size_bits"`
	Payload  string `yaml:"payload"`
	Modifier uint8  `yaml:"modifier"`
}

// tokensManifest describes a fixed-buffer document:
//
//	name: device
//	buffer_size: 256
//	fields:
//	  - token: B
//	    type: String
//	    value: Test
type tokensManifest struct {
	Name       string          `yaml:"name"`
	BufferSize int             `yaml:"buffer_size"`
	Fields     []manifestToken `yaml:"fields"`
}

type manifestToken struct {
	Token string `yaml:"token"`
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

func readManifest(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return nil
}

// defaultName is the archive name used when a manifest has none.
func defaultName(name, path string) string {
	if name != "" {
		return name
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// storeFromManifest fills a new store. The caller closes it.
func storeFromManifest(m *fieldsManifest, limits fields.Limits) (*fields.Store, error) {
	store := fields.NewStore(fields.WithLimits(limits))
	for i, f := range m.Fields {
		payload, err := hex.DecodeString(f.Payload)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("field %d (%s): invalid payload: %w", i, f.Name, err)
		}
		if err := store.Add(f.Name, f.SizeBits, payload, f.Modifier); err != nil {
			store.Close()
			return nil, fmt.Errorf("field %d (%s): %w", i, f.Name, err)
		}
	}
	return store, nil
}

// buildFromManifest builds the document in a buffer of bufSize bytes and
// returns a copy of its content.
func buildFromManifest(c *cflist.Codec, m *tokensManifest, bufSize int) ([]byte, error) {
	var doc []byte
	err := withCodec(c, func(c *cflist.Codec) error {
		b := c.NewBuilder(make([]byte, bufSize))
		b.Start()
		for _, f := range m.Fields {
			if err := b.AddValue(f.Token, cflist.FieldType(f.Type), f.Value); err != nil {
				return err
			}
		}
		b.End()
		doc = append([]byte(nil), b.Bytes()...)
		return nil
	})
	return doc, err
}

// withCodec runs fn and turns a buffer overflow into an error.
func withCodec(c *cflist.Codec, fn func(c *cflist.Codec) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			capErr, ok := r.(*cflist.CapacityError)
			if !ok {
				panic(r)
			}
			err = capErr
		}
	}()
	return fn(c)
}

func newCodec(rt *runtime) *cflist.Codec {
	return cflist.NewCodec(cflist.NewScratch(rt.cfg.Codec.ScratchSize),
		cflist.WithLogger(rt.log.WithField("component", "cflist")))
}
