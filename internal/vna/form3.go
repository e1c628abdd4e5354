package vna

import (
	"encoding/binary"
	"math"
)

const (
	// Form3HeaderSize is the size of the "#A" + uint16 length block header
	Form3HeaderSize = 4

	form3ValueSize = 8
)

// DecodeForm3 decodes a FORM3 binary block: "#A", a big-endian uint16 payload
// length, then big-endian IEEE-754 float64 values.
func DecodeForm3(b []byte) ([]float64, error) {
	if len(b) < Form3HeaderSize {
		return nil, protocolErrorf("FORM3", "short block: %d bytes", len(b))
	}
	if b[0] != '#' || b[1] != 'A' {
		return nil, protocolErrorf("FORM3", "bad block header % x", b[:2])
	}

	n := int(binary.BigEndian.Uint16(b[2:4]))
	payload := b[Form3HeaderSize:]
	if n != len(payload) {
		return nil, protocolErrorf("FORM3", "header announces %d bytes, got %d", n, len(payload))
	}
	if n%form3ValueSize != 0 {
		return nil, protocolErrorf("FORM3", "payload length %d is not a multiple of %d", n, form3ValueSize)
	}

	values := make([]float64, n/form3ValueSize)
	for i := range values {
		values[i] = math.Float64frombits(binary.BigEndian.Uint64(payload[i*form3ValueSize:]))
	}
	return values, nil
}

// EncodeForm3 builds a FORM3 block from values
func EncodeForm3(values []float64) []byte {
	b := make([]byte, Form3HeaderSize+len(values)*form3ValueSize)
	b[0], b[1] = '#', 'A'
	binary.BigEndian.PutUint16(b[2:4], uint16(len(values)*form3ValueSize))
	for i, v := range values {
		binary.BigEndian.PutUint64(b[Form3HeaderSize+i*form3ValueSize:], math.Float64bits(v))
	}
	return b
}

// EncodeForm3Samples builds a FORM3 block of (re, im) pairs
func EncodeForm3Samples(samples []complex128) []byte {
	values := make([]float64, 0, 2*len(samples))
	for _, z := range samples {
		values = append(values, real(z), imag(z))
	}
	return EncodeForm3(values)
}

// Form3Samples decodes a FORM3 block of points complex samples. When inverse
// is set every sample is replaced by its reciprocal.
func Form3Samples(b []byte, points int, inverse bool) ([]complex128, error) {
	values, err := DecodeForm3(b)
	if err != nil {
		return nil, err
	}
	if len(values) != 2*points {
		return nil, protocolErrorf("FORM3", "expected %d values for %d points, got %d", 2*points, points, len(values))
	}

	samples := make([]complex128, points)
	for i := range samples {
		z := complex(values[2*i], values[2*i+1])
		if inverse {
			z = 1 / z
		}
		samples[i] = z
	}
	return samples, nil
}
