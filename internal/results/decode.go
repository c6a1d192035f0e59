package results

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Decoder reads a result container from a stream.
type Decoder interface {
	Decode(r io.Reader) (*Container, error)
}

// MsgpackDecoder reads binary containers.
type MsgpackDecoder struct{}

// Decode implements Decoder.
func (MsgpackDecoder) Decode(r io.Reader) (*Container, error) {
	var c Container
	if err := msgpack.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding msgpack container: %w", err)
	}
	return &c, nil
}

// YAMLDecoder reads text exports. JSON documents are accepted as well.
type YAMLDecoder struct{}

// Decode implements Decoder.
func (YAMLDecoder) Decode(r io.Reader) (*Container, error) {
	var c Container
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding yaml container: %w", err)
	}
	return &c, nil
}

// DecoderFor picks a decoder from the file extension.
func DecoderFor(path string) (Decoder, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".msgpack", ".mpk":
		return MsgpackDecoder{}, nil
	case ".yaml", ".yml", ".json":
		return YAMLDecoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported result container format %q", ext)
	}
}
