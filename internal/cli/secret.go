package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// SecretEnv names the environment variable the sync command reads the
// secret from before falling back to an interactive prompt.
const SecretEnv = "NOTEBOOK_SECRET"

var errNoSecret = errors.New("no secret: set " + SecretEnv + " or run interactively")

// secretReader obtains the account secret without echoing or storing it.
type secretReader struct {
	getenv     func(string) string
	isTerminal func() bool
	readHidden func() ([]byte, error)
	prompt     io.Writer
}

func newSecretReader(prompt io.Writer) secretReader {
	fd := int(os.Stdin.Fd())
	return secretReader{
		getenv:     os.Getenv,
		isTerminal: func() bool { return term.IsTerminal(fd) },
		readHidden: func() ([]byte, error) { return term.ReadPassword(fd) },
		prompt:     prompt,
	}
}

func (r secretReader) Read() (string, error) {
	if secret := r.getenv(SecretEnv); secret != "" {
		return secret, nil
	}
	if !r.isTerminal() {
		return "", errNoSecret
	}

	fmt.Fprint(r.prompt, "Secret: ")
	raw, err := r.readHidden()
	fmt.Fprintln(r.prompt)
	if err != nil {
		return "", fmt.Errorf("read secret: %w", err)
	}

	secret := strings.TrimRight(string(raw), "\r\n")
	if secret == "" {
		return "", errNoSecret
	}
	return secret, nil
}
