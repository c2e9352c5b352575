package chacha20

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// RFC 8439 section 2.1.1 quarter round test vector.
func TestQuarterRound(t *testing.T) {
	a, b, c, d := quarterRound(0x11111111, 0x01020304, 0x9b8d6f43, 0x01234567)
	want := [4]uint32{0xea2a92f4, 0xcb1cf8ce, 0x4581472e, 0x5881c4bb}
	got := [4]uint32{a, b, c, d}
	if got != want {
		t.Errorf("quarterRound() = %08x, want %08x", got, want)
	}
}

// RFC 8439 section 2.3.2 block function test vector.
func TestBlockFunction(t *testing.T) {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	nonce, _ := hex.DecodeString("000000090000004a00000000")

	c, err := New(key, nonce, 1)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	var out [BlockSize]byte
	c.block(&out)

	want, _ := hex.DecodeString(
		"10f1e7e4d13b5915500fdd1fa32071c4c7d1f4c733c068030422aa9ac3d46c4e" +
			"d2826446079faa0914c2d705d98b02a2b5129cd1de164eb9cbd083e8a2503c4e")
	if !bytes.Equal(out[:], want) {
		t.Errorf("block() =\n%x\nwant\n%x", out[:], want)
	}

	if c.state[12] != 2 {
		t.Errorf("counter after one block = %d, want 2", c.state[12])
	}
}

// RFC 8439 section 2.4.2 encryption test vector.
func TestEncryptVector(t *testing.T) {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	nonce, _ := hex.DecodeString("000000000000004a00000000")
	plaintext := []byte("Ladies and Gentlemen of the class of '99: If I could offer you " +
		"only one tip for the future, sunscreen would be it.")

	c, err := New(key, nonce, 1)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ct := make([]byte, len(plaintext))
	c.XORKeyStream(ct, plaintext)

	want, _ := hex.DecodeString(
		"6e2e359a2568f98041ba0728dd0d6981e97e7aec1d4360c20a27afccfd9fae0b" +
			"f91b65c5524733ab8f593dabcd62b3571639d624e65152ab8f530c359f0861d8" +
			"07ca0dbf500d6a6156a38e088a22b65e52bc514d16ccf806818ce91ab7793736" +
			"5af90bbf74a35be6b40b8eedf2785e42874d")
	if !bytes.Equal(ct, want) {
		t.Errorf("ciphertext mismatch:\n got %x\nwant %x", ct, want)
	}
}

func TestRoundTrip(t *testing.T) {
	key := DeriveKeyArgon2("hunter2", bytes.Repeat([]byte{0xab}, SaltSize), Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1})
	nonce := make([]byte, NonceSize)
	plaintext := bytes.Repeat([]byte("vault"), 100) // crosses block boundaries

	enc, err := New(key, nonce, 0)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	ct := make([]byte, len(plaintext))
	enc.XORKeyStream(ct, plaintext)

	if bytes.Equal(ct, plaintext) {
		t.Fatal("ciphertext equals plaintext")
	}

	dec, err := New(key, nonce, 0)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	pt := make([]byte, len(ct))
	dec.XORKeyStream(pt, ct)

	if !bytes.Equal(pt, plaintext) {
		t.Errorf("round trip mismatch")
	}
}

// Splitting a stream across calls must match encrypting in one shot.
func TestStreamContinuation(t *testing.T) {
	key := make([]byte, KeySize)
	nonce := make([]byte, NonceSize)
	src := bytes.Repeat([]byte{0x42}, 3*BlockSize+17)

	whole, _ := New(key, nonce, 0)
	want := make([]byte, len(src))
	whole.XORKeyStream(want, src)

	split, _ := New(key, nonce, 0)
	got := make([]byte, len(src))
	split.XORKeyStream(got[:BlockSize], src[:BlockSize])
	split.XORKeyStream(got[BlockSize:], src[BlockSize:])

	if !bytes.Equal(got, want) {
		t.Errorf("split stream diverges from single call")
	}
}

func TestCounterCarry(t *testing.T) {
	key := make([]byte, KeySize)
	nonce := make([]byte, NonceSize)
	c, _ := New(key, nonce, 0xffffffff)

	var out [BlockSize]byte
	c.block(&out)

	if c.state[12] != 0 {
		t.Errorf("counter = %d, want 0 after wrap", c.state[12])
	}
	if c.state[13] != 1 {
		t.Errorf("carry word = %d, want 1", c.state[13])
	}
}

func TestNewRejectsBadSizes(t *testing.T) {
	if _, err := New(make([]byte, 16), make([]byte, NonceSize), 0); err == nil {
		t.Error("short key accepted")
	}
	if _, err := New(make([]byte, KeySize), make([]byte, 8), 0); err == nil {
		t.Error("short nonce accepted")
	}
}

func TestDeriveKeyLegacy(t *testing.T) {
	a := DeriveKeyLegacy("password")
	b := DeriveKeyLegacy("password")
	if !bytes.Equal(a, b) {
		t.Error("derivation is not deterministic")
	}
	if bytes.Equal(a, DeriveKeyLegacy("passwore")) {
		t.Error("distinct passwords derived the same key")
	}
	if len(a) != KeySize {
		t.Errorf("key length = %d, want %d", len(a), KeySize)
	}
	if !bytes.Equal(DeriveKeyLegacy(""), make([]byte, KeySize)) {
		t.Error("empty password should derive the zero key")
	}
}

func TestDeriveKeyArgon2Salted(t *testing.T) {
	p := Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1}
	s1 := bytes.Repeat([]byte{1}, SaltSize)
	s2 := bytes.Repeat([]byte{2}, SaltSize)
	if bytes.Equal(DeriveKeyArgon2("pw", s1, p), DeriveKeyArgon2("pw", s2, p)) {
		t.Error("distinct salts derived the same key")
	}
}
