// Package credentials resolves the SSH authentication material used to
// dial a device: a password or key configured in the fleet config, falling
// back to an interactive terminal prompt (spec.md §1: authentication
// itself is out of scope for the core; this package is the "open framed
// channel to host" collaborator's credential step). Grounded on the
// teacher's use of golang.org/x/term (pkg/cli/table.go uses term.GetSize;
// this extends the same package to term.ReadPassword).
package credentials

import (
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"github.com/meridian-net/meridian/internal/transport"
)

// Source supplies the statically configured half of a device's
// credentials (whatever internal/config parsed from the fleet file).
// Username is required; Password and PrivateKeyPEM may both be empty, in
// which case Resolve prompts interactively for a password.
type Source struct {
	Username   string
	Password   string // empty: prompt, unless PrivateKeyPEM is set
	PrivateKeyPEM []byte
}

// Resolve turns a Source into transport.Credentials, prompting on the
// controlling terminal for a password if neither a password nor a private
// key was configured.
func Resolve(deviceName string, src Source) (transport.Credentials, error) {
	if src.Username == "" {
		return transport.Credentials{}, fmt.Errorf("credentials: device %s has no configured username", deviceName)
	}

	if len(src.PrivateKeyPEM) > 0 {
		signer, err := ssh.ParsePrivateKey(src.PrivateKeyPEM)
		if err != nil {
			return transport.Credentials{}, fmt.Errorf("credentials: device %s: parse private key: %w", deviceName, err)
		}
		return transport.Credentials{Username: src.Username, Signer: signer}, nil
	}

	if src.Password != "" {
		return transport.Credentials{Username: src.Username, Password: src.Password}, nil
	}

	pass, err := promptPassword(deviceName, src.Username)
	if err != nil {
		return transport.Credentials{}, err
	}
	return transport.Credentials{Username: src.Username, Password: pass}, nil
}

func promptPassword(deviceName, username string) (string, error) {
	fmt.Fprintf(os.Stderr, "password for %s@%s: ", username, deviceName)
	bytePass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("credentials: device %s: reading password: %w", deviceName, err)
	}
	return string(bytePass), nil
}
