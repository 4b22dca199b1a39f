package fingerprint

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest_DeterministicAcrossReaders(t *testing.T) {
	doc := []byte("invoice pdf bytes, byte for byte")

	first, err := Digest(bytes.NewReader(doc))
	require.NoError(t, err)
	second, err := Digest(bytes.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, DigestBytes(doc))
}

func TestDigest_HexEncoding(t *testing.T) {
	d := DigestBytes([]byte("abc"))

	assert.Len(t, d.String(), 64)
	// Known SHA-256 vector.
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", d.String())
}

func TestDigest_SingleByteChangesDigest(t *testing.T) {
	doc := []byte("the attested document")
	tampered := append([]byte{}, doc...)
	tampered[0] ^= 0x01

	assert.NotEqual(t, DigestBytes(doc), DigestBytes(tampered))
}

func TestDigest_ReadFailure(t *testing.T) {
	_, err := Digest(&failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "io_error")
}

func TestDigest_LargeDocumentStreams(t *testing.T) {
	doc := strings.Repeat("x", 1<<20)

	streamed, err := Digest(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, DigestBytes([]byte(doc)), streamed)
}

type failingReader struct{}

func (*failingReader) Read([]byte) (int, error) {
	return 0, assert.AnError
}
