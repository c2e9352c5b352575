package chacha20

import "golang.org/x/crypto/argon2"

// SaltSize is the salt length used by the argon2id derivation.
const SaltSize = 16

// Argon2Params configures the argon2id key derivation.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultArgon2Params follows the RFC 9106 second recommended option
// (t=3, 64 MiB, p=4).
var DefaultArgon2Params = Argon2Params{Time: 3, Memory: 64 * 1024, Threads: 4}

// DeriveKeyArgon2 derives a cipher key from a password and per-snapshot
// salt using argon2id.
func DeriveKeyArgon2(password string, salt []byte, params Argon2Params) []byte {
	return argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, KeySize)
}

// DeriveKeyLegacy derives a cipher key with the scheme used by pre-v2
// snapshots: each key byte is a password byte XORed with its index times
// seven, followed by a neighbor-mix and a one-bit rotate. It is not a real
// key stretch and survives only to read and write old snapshots.
func DeriveKeyLegacy(password string) []byte {
	key := make([]byte, KeySize)
	if len(password) == 0 {
		return key
	}
	for i := 0; i < KeySize; i++ {
		key[i] = password[i%len(password)] ^ byte(i*7)
	}
	for i := 0; i < KeySize; i++ {
		key[i] ^= key[(i+1)%KeySize]
		key[i] = key[i]<<1 | key[i]>>7
	}
	return key
}
