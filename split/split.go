package split

import (
	"errors"
	"fmt"
	"io"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"rectnet/core/ckkswrapper"
	"rectnet/nn"
)

// Server owns a network and evaluates its first stage on ciphertexts.
type Server struct {
	net *nn.Network
	kit *ckkswrapper.ServerKit
}

// NewServer returns a server evaluating net with kit.
func NewServer(net *nn.Network, kit *ckkswrapper.ServerKit) *Server {
	return &Server{net: net, kit: kit}
}

// FirstStage computes Σ_i (x_i + b_i) · W[i,:] where ct_i holds x_i in every
// slot of the first stage's width. The result is rescaled once.
func (s *Server) FirstStage(cts []*rlwe.Ciphertext) (*rlwe.Ciphertext, error) {
	l := s.net.Layout()
	w := l.Weights[0]
	rows, cols := w.Shape[0], w.Shape[1]
	if len(cts) != rows {
		return nil, &nn.InputSizeError{Expected: rows, Actual: len(cts)}
	}
	eval := s.kit.Evaluator

	var acc *rlwe.Ciphertext
	for i, ct := range cts {
		bias := make([]float64, cols)
		for j := range bias {
			bias[j] = l.InputBias.At(i)
		}
		biasPT, err := s.kit.EncodeAt(bias, ct.Level())
		if err != nil {
			return nil, fmt.Errorf("input %d bias: %w", i, err)
		}
		biased, err := eval.AddNew(ct, biasPT)
		if err != nil {
			return nil, fmt.Errorf("input %d AddNew: %w", i, err)
		}

		rowPT, err := s.kit.EncodeAt(w.Data[i*cols:(i+1)*cols], biased.Level())
		if err != nil {
			return nil, fmt.Errorf("input %d weights: %w", i, err)
		}
		prod, err := eval.MulNew(biased, rowPT)
		if err != nil {
			return nil, fmt.Errorf("input %d MulNew: %w", i, err)
		}

		if acc == nil {
			acc = prod
			continue
		}
		if err := eval.Add(acc, prod, acc); err != nil {
			return nil, fmt.Errorf("input %d Add: %w", i, err)
		}
	}
	if err := eval.Rescale(acc, acc); err != nil {
		return nil, fmt.Errorf("Rescale: %w", err)
	}
	return acc, nil
}

// Serve answers forward requests on p until the client sends MsgDone.
func (s *Server) Serve(p *Protocol) error {
	for {
		typ, payload, err := p.ReceiveForward()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if typ != MsgForwardInput {
			if err := p.SendError(fmt.Errorf("expected forward input, got message type %d", typ)); err != nil {
				return err
			}
			continue
		}

		cts, err := unmarshalAll(payload.Ciphertexts)
		if err != nil {
			if sendErr := p.SendError(err); sendErr != nil {
				return sendErr
			}
			continue
		}
		out, err := s.FirstStage(cts)
		if err != nil {
			if sendErr := p.SendError(err); sendErr != nil {
				return sendErr
			}
			continue
		}
		data, err := out.MarshalBinary()
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		if err := p.SendForwardOutput(payload.BatchID, [][]byte{data}, out.Level(), out.Scale.Float64()); err != nil {
			return err
		}
	}
}

// Client holds the key material and a copy of the network whose tail it runs.
type Client struct {
	he  *ckkswrapper.HeContext
	net *nn.Network
}

// NewClient returns a client evaluating net with the keys of he.
func NewClient(he *ckkswrapper.HeContext, net *nn.Network) *Client {
	return &Client{he: he, net: net}
}

// EncryptInput encrypts every input value into its own ciphertext, replicated
// across the first stage's width.
func (c *Client) EncryptInput(input []float64) ([]*rlwe.Ciphertext, error) {
	if len(input) != c.net.NumInputs() {
		return nil, &nn.InputSizeError{Expected: c.net.NumInputs(), Actual: len(input)}
	}
	width := c.net.LayerHeight()
	cts := make([]*rlwe.Ciphertext, len(input))
	for i, x := range input {
		ct, err := c.he.EncryptReplicated(x, width)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		cts[i] = ct
	}
	return cts, nil
}

// Finish decrypts the server's first stage result and runs the rest of the
// network on it.
func (c *Client) Finish(ct *rlwe.Ciphertext) ([]float64, error) {
	pre, err := c.he.DecryptReal(ct, c.net.LayerHeight())
	if err != nil {
		return nil, err
	}
	return c.net.EvaluateTail(pre)
}

// Evaluate runs one encrypted round trip over p.
func (c *Client) Evaluate(p *Protocol, batchID int, input []float64) ([]float64, error) {
	cts, err := c.EncryptInput(input)
	if err != nil {
		return nil, err
	}
	data, err := marshalAll(cts)
	if err != nil {
		return nil, err
	}
	if err := p.SendForward(batchID, data, cts[0].Level(), cts[0].Scale.Float64()); err != nil {
		return nil, fmt.Errorf("send forward: %w", err)
	}

	typ, payload, err := p.ReceiveForward()
	if err != nil {
		return nil, fmt.Errorf("receive forward: %w", err)
	}
	if typ != MsgForwardOutput || len(payload.Ciphertexts) != 1 {
		return nil, fmt.Errorf("unexpected reply: type %d with %d ciphertexts", typ, len(payload.Ciphertexts))
	}
	if payload.BatchID != batchID {
		return nil, fmt.Errorf("reply for batch %d, want %d", payload.BatchID, batchID)
	}
	out, err := unmarshalAll(payload.Ciphertexts)
	if err != nil {
		return nil, err
	}
	return c.Finish(out[0])
}

func marshalAll(cts []*rlwe.Ciphertext) ([][]byte, error) {
	data := make([][]byte, len(cts))
	for i, ct := range cts {
		b, err := ct.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("marshal ciphertext %d: %w", i, err)
		}
		data[i] = b
	}
	return data, nil
}

func unmarshalAll(data [][]byte) ([]*rlwe.Ciphertext, error) {
	cts := make([]*rlwe.Ciphertext, len(data))
	for i, b := range data {
		ct := new(rlwe.Ciphertext)
		if err := ct.UnmarshalBinary(b); err != nil {
			return nil, fmt.Errorf("unmarshal ciphertext %d: %w", i, err)
		}
		cts[i] = ct
	}
	return cts, nil
}
