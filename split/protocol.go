// Package split evaluates the first stage of a network on encrypted inputs:
// the client keeps its input private, the server applies the input biases and
// first weight block under CKKS, and the client finishes the pass.
package split

import (
	"encoding/gob"
	"fmt"
	"io"
)

func init() {
	// Register types for gob encoding
	gob.Register(ForwardPayload{})
}

// MessageType defines message types for the split evaluation protocol
type MessageType int

const (
	MsgForwardInput MessageType = iota
	MsgForwardOutput
	MsgDone
	MsgError
)

// Message represents a message in the split evaluation protocol
type Message struct {
	Type    MessageType
	Payload interface{}
}

// ForwardPayload carries serialized ciphertexts of one forward pass.
type ForwardPayload struct {
	BatchID     int
	Ciphertexts [][]byte
	Level       int
	ScaleFloat  float64
}

// Protocol handles split evaluation communication
type Protocol struct {
	encoder *gob.Encoder
	decoder *gob.Decoder
}

// NewProtocol creates a new protocol handler
func NewProtocol(r io.Reader, w io.Writer) *Protocol {
	p := &Protocol{}
	if w != nil {
		p.encoder = gob.NewEncoder(w)
	}
	if r != nil {
		p.decoder = gob.NewDecoder(r)
	}
	return p
}

// Send sends a message
func (p *Protocol) Send(msg *Message) error {
	if p.encoder == nil {
		return fmt.Errorf("protocol has no writer")
	}
	return p.encoder.Encode(msg)
}

// Receive receives a message
func (p *Protocol) Receive() (*Message, error) {
	if p.decoder == nil {
		return nil, fmt.Errorf("protocol has no reader")
	}
	var msg Message
	if err := p.decoder.Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendForward sends the encrypted inputs of one evaluation
func (p *Protocol) SendForward(batchID int, cts [][]byte, level int, scale float64) error {
	return p.sendPayload(MsgForwardInput, batchID, cts, level, scale)
}

// SendForwardOutput sends the encrypted first stage result
func (p *Protocol) SendForwardOutput(batchID int, cts [][]byte, level int, scale float64) error {
	return p.sendPayload(MsgForwardOutput, batchID, cts, level, scale)
}

func (p *Protocol) sendPayload(t MessageType, batchID int, cts [][]byte, level int, scale float64) error {
	return p.Send(&Message{
		Type: t,
		Payload: ForwardPayload{
			BatchID:     batchID,
			Ciphertexts: cts,
			Level:       level,
			ScaleFloat:  scale,
		},
	})
}

// SendDone signals completion
func (p *Protocol) SendDone() error {
	return p.Send(&Message{Type: MsgDone})
}

// SendError sends an error message
func (p *Protocol) SendError(err error) error {
	return p.Send(&Message{
		Type:    MsgError,
		Payload: err.Error(),
	})
}

// ReceiveForward receives a forward payload of either direction. It returns
// io.EOF once the peer sent MsgDone.
func (p *Protocol) ReceiveForward() (MessageType, *ForwardPayload, error) {
	msg, err := p.Receive()
	if err != nil {
		return 0, nil, err
	}
	if msg.Type == MsgError {
		return msg.Type, nil, fmt.Errorf("remote error: %v", msg.Payload)
	}
	if msg.Type == MsgDone {
		return msg.Type, nil, io.EOF
	}
	if msg.Type != MsgForwardInput && msg.Type != MsgForwardOutput {
		return msg.Type, nil, fmt.Errorf("expected forward message, got %d", msg.Type)
	}
	payload, ok := msg.Payload.(ForwardPayload)
	if !ok {
		return msg.Type, nil, fmt.Errorf("invalid forward payload type")
	}
	return msg.Type, &payload, nil
}
