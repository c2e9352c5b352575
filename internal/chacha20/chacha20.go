// Package chacha20 implements the ChaCha20 stream cipher (RFC 8439): a
// 20-round add-rotate-xor construction over a 512-bit state built from four
// constant words, a 256-bit key, a 32-bit block counter and a 96-bit nonce.
// Encryption and decryption are the same keystream XOR.
//
// The cipher state lives in an explicit Cipher value, so independent
// streams never share mutable state.
package chacha20

import (
	"encoding/binary"
	"fmt"
	"math/bits"
)

// KeySize is the cipher key length in bytes.
const KeySize = 32

// NonceSize is the nonce length in bytes.
const NonceSize = 12

// BlockSize is the keystream block length in bytes.
const BlockSize = 64

// The four "expand 32-byte k" setup constants.
const (
	constant0 = 0x61707865
	constant1 = 0x3320646e
	constant2 = 0x79622d32
	constant3 = 0x6b206574
)

// Cipher holds the 16-word state for one keystream. Words 0..3 are the
// constants, 4..11 the key, 12 the block counter, 13..15 the nonce.
type Cipher struct {
	state [16]uint32
}

// New returns a cipher for the given key and nonce with the block counter
// starting at counter. Reusing a (key, nonce) pair across two different
// plaintexts breaks the cipher; callers own nonce uniqueness.
func New(key []byte, nonce []byte, counter uint32) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("chacha20: key must be %d bytes, got %d", KeySize, len(key))
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("chacha20: nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}

	c := &Cipher{}
	c.state[0] = constant0
	c.state[1] = constant1
	c.state[2] = constant2
	c.state[3] = constant3
	for i := 0; i < 8; i++ {
		c.state[4+i] = binary.LittleEndian.Uint32(key[i*4:])
	}
	c.state[12] = counter
	c.state[13] = binary.LittleEndian.Uint32(nonce[0:])
	c.state[14] = binary.LittleEndian.Uint32(nonce[4:])
	c.state[15] = binary.LittleEndian.Uint32(nonce[8:])
	return c, nil
}

func quarterRound(a, b, c, d uint32) (uint32, uint32, uint32, uint32) {
	a += b
	d ^= a
	d = bits.RotateLeft32(d, 16)
	c += d
	b ^= c
	b = bits.RotateLeft32(b, 12)
	a += b
	d ^= a
	d = bits.RotateLeft32(d, 8)
	c += d
	b ^= c
	b = bits.RotateLeft32(b, 7)
	return a, b, c, d
}

// block produces the next 64-byte keystream block and advances the counter,
// carrying into the adjacent word on overflow.
func (c *Cipher) block(out *[BlockSize]byte) {
	var w [16]uint32
	w = c.state

	for i := 0; i < 10; i++ {
		// column rounds
		w[0], w[4], w[8], w[12] = quarterRound(w[0], w[4], w[8], w[12])
		w[1], w[5], w[9], w[13] = quarterRound(w[1], w[5], w[9], w[13])
		w[2], w[6], w[10], w[14] = quarterRound(w[2], w[6], w[10], w[14])
		w[3], w[7], w[11], w[15] = quarterRound(w[3], w[7], w[11], w[15])
		// diagonal rounds
		w[0], w[5], w[10], w[15] = quarterRound(w[0], w[5], w[10], w[15])
		w[1], w[6], w[11], w[12] = quarterRound(w[1], w[6], w[11], w[12])
		w[2], w[7], w[8], w[13] = quarterRound(w[2], w[7], w[8], w[13])
		w[3], w[4], w[9], w[14] = quarterRound(w[3], w[4], w[9], w[14])
	}

	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(out[i*4:], w[i]+c.state[i])
	}

	c.state[12]++
	if c.state[12] == 0 {
		c.state[13]++
	}
}

// XORKeyStream XORs src with the keystream into dst. dst and src may be the
// same slice; dst must be at least len(src) bytes. Calling it twice
// continues the same keystream.
func (c *Cipher) XORKeyStream(dst, src []byte) {
	var ks [BlockSize]byte
	for pos := 0; pos < len(src); pos += BlockSize {
		c.block(&ks)
		n := len(src) - pos
		if n > BlockSize {
			n = BlockSize
		}
		for i := 0; i < n; i++ {
			dst[pos+i] = src[pos+i] ^ ks[i]
		}
	}
}
