package security

// Wipe overwrites b with zero bytes. It is called on file content and
// decrypted plaintext buffers immediately before they are dropped so the
// bytes do not stay resident. The runtime may have copied the buffer during
// growth; this zeroes the final allocation only.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
