package ckkswrapper

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

// DefaultLogN is the ring degree used by NewHeContext.
const DefaultLogN = 13

// HeContext holds the client side of a CKKS setup: parameters, keys and the
// encoder/encryptor/decryptor built from them.
type HeContext struct {
	Params    ckks.Parameters
	Sk        *rlwe.SecretKey
	Pk        *rlwe.PublicKey
	Encoder   *ckks.Encoder
	Encryptor *rlwe.Encryptor
	Decryptor *rlwe.Decryptor
}

// ServerKit is what the evaluating side needs: parameters and a key-less
// evaluator. It supports additions and plaintext multiplications only.
type ServerKit struct {
	Params    ckks.Parameters
	Encoder   *ckks.Encoder
	Evaluator *ckks.Evaluator
}

// NewHeContext returns a context with DefaultLogN. It panics if the parameters
// cannot be built.
func NewHeContext() *HeContext {
	return NewHeContextWithLogN(DefaultLogN)
}

// NewHeContextWithLogN returns a context with two ciphertext levels: enough for
// one plaintext multiplication followed by a rescale.
func NewHeContextWithLogN(logN int) *HeContext {
	params, err := ckks.NewParametersFromLiteral(ckks.ParametersLiteral{
		LogN:            logN,
		LogQ:            []int{55, 40},
		LogP:            []int{61},
		LogDefaultScale: 40,
		Xs:              rlwe.DefaultXs,
		Xe:              rlwe.DefaultXe,
	})
	if err != nil {
		panic(fmt.Errorf("ckks parameters for logN=%d: %w", logN, err))
	}
	return NewHeContextWithParams(params)
}

// NewHeContextWithParams generates a fresh key pair for params.
func NewHeContextWithParams(params ckks.Parameters) *HeContext {
	kgen := rlwe.NewKeyGenerator(params)
	sk := kgen.GenSecretKeyNew()
	pk := kgen.GenPublicKeyNew(sk)
	return &HeContext{
		Params:    params,
		Sk:        sk,
		Pk:        pk,
		Encoder:   ckks.NewEncoder(params),
		Encryptor: rlwe.NewEncryptor(params, pk),
		Decryptor: rlwe.NewDecryptor(params, sk),
	}
}

// ServerKit returns an evaluation kit that holds no key material.
func (h *HeContext) ServerKit() *ServerKit {
	return NewServerKit(h.Params)
}

// NewServerKit builds a key-less kit for params.
func NewServerKit(params ckks.Parameters) *ServerKit {
	return &ServerKit{
		Params:    params,
		Encoder:   ckks.NewEncoder(params),
		Evaluator: ckks.NewEvaluator(params, nil),
	}
}

// EncryptReplicated encrypts value into the first n slots at the maximum level.
func (h *HeContext) EncryptReplicated(value float64, n int) (*rlwe.Ciphertext, error) {
	if n > h.Params.MaxSlots() {
		return nil, fmt.Errorf("cannot replicate into %d slots, have %d", n, h.Params.MaxSlots())
	}
	vec := make([]float64, n)
	for i := range vec {
		vec[i] = value
	}
	pt := ckks.NewPlaintext(h.Params, h.Params.MaxLevel())
	pt.Scale = h.Params.DefaultScale()
	if err := h.Encoder.Encode(vec, pt); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return h.Encryptor.EncryptNew(pt)
}

// DecryptReal decrypts ct and returns the real parts of its first n slots.
func (h *HeContext) DecryptReal(ct *rlwe.Ciphertext, n int) ([]float64, error) {
	pt := h.Decryptor.DecryptNew(ct)
	decoded := make([]complex128, h.Params.MaxSlots())
	if err := h.Encoder.Decode(pt, decoded); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if n > len(decoded) {
		n = len(decoded)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = real(decoded[i])
	}
	return out, nil
}

// EncodeAt encodes values into a plaintext at the given level with the
// default scale.
func (k *ServerKit) EncodeAt(values []float64, level int) (*rlwe.Plaintext, error) {
	pt := ckks.NewPlaintext(k.Params, level)
	pt.Scale = k.Params.DefaultScale()
	if err := k.Encoder.Encode(values, pt); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return pt, nil
}
