package httpapi

import (
	"encoding/json"

	"github.com/zapdos-labs/videopipeline/videoframe"
)

// AttributeCodec encodes/decodes the KVS HTTP surface's AttributeSet body.
// spec.md calls for protobuf but treats the codec as an external
// collaborator; this interface keeps the server decoupled from any one
// wire format. JSONCodec is the default implementation.
type AttributeCodec interface {
	Encode(attrs []videoframe.Attribute) ([]byte, error)
	Decode(data []byte) ([]videoframe.Attribute, error)
}

// JSONCodec is the default AttributeCodec, encoding an AttributeSet as a
// JSON array of attributes.
type JSONCodec struct{}

func (JSONCodec) Encode(attrs []videoframe.Attribute) ([]byte, error) {
	if attrs == nil {
		attrs = []videoframe.Attribute{}
	}
	return json.Marshal(attrs)
}

func (JSONCodec) Decode(data []byte) ([]videoframe.Attribute, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var attrs []videoframe.Attribute
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}
