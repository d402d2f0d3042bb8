package dashboardpb

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype under which the CBOR codec is
// registered. Clients select it with grpc.CallContentSubtype(CodecName).
const CodecName = "cbor"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	// Core Deterministic Encoding keeps identical messages byte-identical.
	// Timestamps keep sub-second precision as tagged RFC 3339 strings.
	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encOptions.TimeTag = cbor.EncTagRequired
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("dashboardpb: CBOR encoder initialization failed: " + err.Error())
	}

	// Unknown fields are ignored so older clients keep working against
	// newer backends.
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("dashboardpb: CBOR decoder initialization failed: " + err.Error())
	}

	encoding.RegisterCodec(Codec{})
}

// Codec implements encoding.Codec over CBOR.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	data, err := encMode.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("cbor marshal %T: %w", v, err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	if err := decMode.Unmarshal(data, v); err != nil {
		return fmt.Errorf("cbor unmarshal %T: %w", v, err)
	}
	return nil
}

func (Codec) Name() string { return CodecName }

var _ encoding.Codec = Codec{}
