package mpc

import (
	"os"
	"strings"

	"github.com/ProtonMail/gopenpgp/v2/crypto"
)

// PrivateKeyProvider is the narrow interface the core depends on for
// signing: it never reads key material off disk itself, only consumes
// whatever the front-end supplies.
type PrivateKeyProvider interface {
	// PrivateKey returns the ASCII-armored private key and its passphrase.
	// An empty key means "no signing configured".
	PrivateKey() (armoredKey string, passphrase []byte, err error)
}

// FilePrivateKeyProvider reads the key and passphrase from files, the
// concrete provider the CLI wires up for --private-key-file and
// --passphrase-file.
type FilePrivateKeyProvider struct {
	KeyFile        string
	PassphraseFile string
}

func (p *FilePrivateKeyProvider) PrivateKey() (string, []byte, error) {
	if p.KeyFile == "" {
		return "", nil, nil
	}
	key, err := os.ReadFile(p.KeyFile)
	if err != nil {
		return "", nil, &IoFailure{Path: p.KeyFile, Err: err}
	}
	var passphrase []byte
	if p.PassphraseFile != "" {
		raw, err := os.ReadFile(p.PassphraseFile)
		if err != nil {
			return "", nil, &IoFailure{Path: p.PassphraseFile, Err: err}
		}
		passphrase = []byte(strings.TrimRight(string(raw), "\r\n"))
	}
	return string(key), passphrase, nil
}

// Signer produces detached, ASCII-armored signatures over INI bodies.
type Signer struct {
	keyRing *crypto.KeyRing
}

// NewSigner builds a Signer from a PrivateKeyProvider. A nil provider, or
// one returning no key, yields a nil *Signer: callers treat that as
// "write unsigned", matching §4.6.
func NewSigner(provider PrivateKeyProvider) (*Signer, error) {
	if provider == nil {
		return nil, nil
	}
	armoredKey, passphrase, err := provider.PrivateKey()
	if err != nil {
		return nil, err
	}
	if armoredKey == "" {
		return nil, nil
	}

	key, err := crypto.NewKeyFromArmored(armoredKey)
	if err != nil {
		return nil, &ConfigurationError{Message: "parsing private key: " + err.Error()}
	}
	if len(passphrase) > 0 {
		unlocked, err := key.Unlock(passphrase)
		if err != nil {
			return nil, &ConfigurationError{Message: "unlocking private key: " + err.Error()}
		}
		key = unlocked
	}
	keyRing, err := crypto.NewKeyRing(key)
	if err != nil {
		return nil, &ConfigurationError{Message: "building keyring: " + err.Error()}
	}
	return &Signer{keyRing: keyRing}, nil
}

// SignDetached returns an ASCII-armored detached signature over body.
func (s *Signer) SignDetached(body []byte) (string, error) {
	sig, err := s.keyRing.SignDetached(crypto.NewPlainMessage(body))
	if err != nil {
		return "", &ConfigurationError{Message: "signing: " + err.Error()}
	}
	armored, err := sig.GetArmored()
	if err != nil {
		return "", &ConfigurationError{Message: "armoring signature: " + err.Error()}
	}
	return armored, nil
}

// signatureComment formats an armored detached signature as a trailing
// INI comment block, the convention every written INI file uses when a
// signing key is configured.
func signatureComment(armored string) string {
	var sb strings.Builder
	sb.WriteString("; signature\n")
	for _, line := range strings.Split(strings.TrimRight(armored, "\n"), "\n") {
		sb.WriteString("; ")
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteSignedFile writes body to path, appending a trailing signature
// comment block when signer is non-nil.
func WriteSignedFile(path string, body []byte, signer *Signer) error {
	out := body
	if signer != nil {
		armored, err := signer.SignDetached(body)
		if err != nil {
			return err
		}
		out = append(append([]byte{}, body...), []byte(signatureComment(armored))...)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return &IoFailure{Path: path, Err: err}
	}
	return nil
}
