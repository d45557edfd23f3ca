package mpc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyKeyProvider struct{}

func (emptyKeyProvider) PrivateKey() (string, []byte, error) { return "", nil, nil }

func TestNewSignerWithNilProviderIsUnsigned(t *testing.T) {
	signer, err := NewSigner(nil)
	require.NoError(t, err)
	assert.Nil(t, signer)
}

func TestNewSignerWithEmptyKeyIsUnsigned(t *testing.T) {
	signer, err := NewSigner(emptyKeyProvider{})
	require.NoError(t, err)
	assert.Nil(t, signer)
}

func TestFilePrivateKeyProviderWithoutKeyFileIsEmpty(t *testing.T) {
	p := &FilePrivateKeyProvider{}
	key, passphrase, err := p.PrivateKey()
	require.NoError(t, err)
	assert.Empty(t, key)
	assert.Nil(t, passphrase)
}

func TestFilePrivateKeyProviderReadsPassphraseTrimmed(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key.asc")
	passFile := filepath.Join(dir, "pass.txt")
	require.NoError(t, os.WriteFile(keyFile, []byte("not-a-real-key"), 0o644))
	require.NoError(t, os.WriteFile(passFile, []byte("s3cret\r\n"), 0o644))

	p := &FilePrivateKeyProvider{KeyFile: keyFile, PassphraseFile: passFile}
	key, passphrase, err := p.PrivateKey()
	require.NoError(t, err)
	assert.Equal(t, "not-a-real-key", key)
	assert.Equal(t, []byte("s3cret"), passphrase)
}

func TestWriteSignedFileWithoutSignerWritesRawBody(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pr.ini")
	body := []byte("key=value\n")
	require.NoError(t, WriteSignedFile(path, body, nil))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, body, got)
}

func TestSignatureCommentPrefixesEveryLine(t *testing.T) {
	out := signatureComment("AAAA\nBBBB")
	assert.Equal(t, "; signature\n; AAAA\n; BBBB\n", out)
}
