package storage

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CheckpointEnvelope is a versioned, explicitly typed wrapper for checkpoint
// blobs. Kind names the collaborator-owned format of Data; Version lets a
// collaborator evolve that format without guessing at untyped bytes. The
// Data bytes themselves remain opaque to the core.
type CheckpointEnvelope struct {
	Version int    `cbor:"1,keyasint"`
	Kind    string `cbor:"2,keyasint"`
	Data    []byte `cbor:"3,keyasint"`
}

// EncodeCheckpoint wraps collaborator state in a CheckpointEnvelope and
// returns its CBOR encoding, suitable for CheckpointStore.SaveCheckpoint.
func EncodeCheckpoint(version int, kind string, data []byte) ([]byte, error) {
	blob, err := cbor.Marshal(CheckpointEnvelope{Version: version, Kind: kind, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode checkpoint envelope: %w", err)
	}
	return blob, nil
}

// DecodeCheckpoint parses a CBOR-encoded CheckpointEnvelope.
func DecodeCheckpoint(blob []byte) (*CheckpointEnvelope, error) {
	var env CheckpointEnvelope
	if err := cbor.Unmarshal(blob, &env); err != nil {
		return nil, fmt.Errorf("decode checkpoint envelope: %w", err)
	}
	return &env, nil
}
