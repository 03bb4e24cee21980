package trace

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// WriteMsgpack encodes the trace to w.
func WriteMsgpack(w io.Writer, et *EpisodeTrace) error {
	if err := msgpack.NewEncoder(w).Encode(et); err != nil {
		return fmt.Errorf("encoding episode trace: %w", err)
	}
	return nil
}

// ReadMsgpack decodes a trace written by WriteMsgpack.
func ReadMsgpack(r io.Reader) (*EpisodeTrace, error) {
	var et EpisodeTrace
	if err := msgpack.NewDecoder(r).Decode(&et); err != nil {
		return nil, fmt.Errorf("decoding episode trace: %w", err)
	}
	return &et, nil
}
