package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretReader(t *testing.T) {
	env := func(values map[string]string) func(string) string {
		return func(k string) string { return values[k] }
	}

	t.Run("environment wins", func(t *testing.T) {
		r := secretReader{
			getenv:     env(map[string]string{SecretEnv: "from-env"}),
			isTerminal: func() bool { t.Fatal("terminal must not be consulted"); return false },
		}

		secret, err := r.Read()
		require.NoError(t, err)
		assert.Equal(t, "from-env", secret)
	})

	t.Run("prompts on a terminal", func(t *testing.T) {
		var prompt bytes.Buffer
		r := secretReader{
			getenv:     env(nil),
			isTerminal: func() bool { return true },
			readHidden: func() ([]byte, error) { return []byte("typed\r\n"), nil },
			prompt:     &prompt,
		}

		secret, err := r.Read()
		require.NoError(t, err)
		assert.Equal(t, "typed", secret)
		assert.Contains(t, prompt.String(), "Secret:")
		assert.NotContains(t, prompt.String(), "typed")
	})

	t.Run("no terminal and no environment", func(t *testing.T) {
		r := secretReader{getenv: env(nil), isTerminal: func() bool { return false }}

		_, err := r.Read()
		assert.ErrorIs(t, err, errNoSecret)
	})

	t.Run("empty input", func(t *testing.T) {
		r := secretReader{
			getenv:     env(nil),
			isTerminal: func() bool { return true },
			readHidden: func() ([]byte, error) { return nil, nil },
			prompt:     &bytes.Buffer{},
		}

		_, err := r.Read()
		assert.ErrorIs(t, err, errNoSecret)
	})

	t.Run("read failure", func(t *testing.T) {
		boom := errors.New("tty gone")
		r := secretReader{
			getenv:     env(nil),
			isTerminal: func() bool { return true },
			readHidden: func() ([]byte, error) { return nil, boom },
			prompt:     &bytes.Buffer{},
		}

		_, err := r.Read()
		assert.ErrorIs(t, err, boom)
	})
}
