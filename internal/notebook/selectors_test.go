package notebook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSelectors(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		sel, err := LoadSelectors("")
		require.NoError(t, err)
		assert.Equal(t, DefaultSelectors(), sel)
	})

	t.Run("overlays file on defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "selectors.yaml")
		content := `
library_item: ".library-book"
identifier_fields:
  - "#login"
annotation_note: ".note"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		sel, err := LoadSelectors(path)
		require.NoError(t, err)

		assert.Equal(t, ".library-book", sel.LibraryItem)
		assert.Equal(t, []string{"#login"}, sel.IdentifierFields)
		assert.Equal(t, ".note", sel.AnnotationNote)
		assert.Equal(t, DefaultSelectors().SecretFields, sel.SecretFields)
		assert.Equal(t, DefaultSelectors().Annotation, sel.Annotation)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSelectors(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("library_item: [unclosed"), 0644))

		_, err := LoadSelectors(path)
		assert.Error(t, err)
	})
}

func TestSelectors_Validate(t *testing.T) {
	assert.NoError(t, DefaultSelectors().Validate())

	sel := DefaultSelectors()
	sel.LibraryItem = ""
	sel.SecretFields = nil
	err := sel.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "library_item")
	assert.Contains(t, err.Error(), "secret_fields")
}
