package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ruffel/sshrpc"
	"golang.org/x/crypto/ssh"
)

// checkCredential verifies that path exists and holds private key material.
// It returns the SHA256 fingerprint of the public half when it can be derived.
// Passphrase-protected keys are accepted: the ssh client (or an agent) unlocks them.
func checkCredential(path string) (string, error) {
	keyBytes, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", sshrpc.ErrMissingCredential, path)
	}

	if err != nil {
		return "", fmt.Errorf("failed to read private key file: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err == nil {
		return ssh.FingerprintSHA256(signer.PublicKey()), nil
	}

	var passErr *ssh.PassphraseMissingError
	if errors.As(err, &passErr) {
		if passErr.PublicKey != nil {
			return ssh.FingerprintSHA256(passErr.PublicKey), nil
		}

		return "", nil
	}

	return "", fmt.Errorf("%w: %s: %w", sshrpc.ErrInvalidCredential, path, err)
}
