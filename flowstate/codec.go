package flowstate

import (
	"encoding/json"
	"fmt"
)

// Codec turns flow state into sealed blobs for stores that persist outside the process.
type Codec struct {
	sealer *Sealer
}

func NewCodec(sealer *Sealer) *Codec {
	return &Codec{sealer: sealer}
}

func (c *Codec) Encode(flowID string, state *FlowState) ([]byte, error) {
	plaintext, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("[Codec Encode] marshal: %w", err)
	}
	return c.sealer.Seal(plaintext, []byte(flowID))
}

func (c *Codec) Decode(flowID string, blob []byte) (*FlowState, error) {
	plaintext, err := c.sealer.Open(blob, []byte(flowID))
	if err != nil {
		return nil, fmt.Errorf("[Codec Decode] %w", err)
	}
	var state FlowState
	if err := json.Unmarshal(plaintext, &state); err != nil {
		return nil, fmt.Errorf("[Codec Decode] unmarshal: %w", err)
	}
	return &state, nil
}
