package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/notebooksync/internal/browser"
	"github.com/mrlokans/notebooksync/internal/notebook"
)

const (
	testHomeURL     = "https://provider.test/"
	testSignInURL   = "https://provider.test/signin"
	testNotebookURL = "https://reader.test/notebook"
)

const threeBookLibrary = `<html><body><div id="library">
<div class="kp-notebook-library-each-book" id="A"><h2 class="kp-notebook-searchable">Book A</h2><p class="kp-notebook-searchable">Author A</p><img src="/a.jpg"></div>
<div class="kp-notebook-library-each-book" id="B"><h2 class="kp-notebook-searchable">Book B</h2><p class="kp-notebook-searchable">Author B</p></div>
<div class="kp-notebook-library-each-book" id="C"><h2 class="kp-notebook-searchable">Book C</h2><p class="kp-notebook-searchable">Author C</p></div>
</div></body></html>`

func testOptions() Options {
	return Options{
		Endpoints: Endpoints{
			HomeURL:    testHomeURL,
			SignInURL:  testSignInURL,
			URLPattern: `/notebook`,
		},
		Timeouts: Timeouts{
			SelectorProbe: 10 * time.Millisecond,
			SecretField:   10 * time.Millisecond,
			LoginRedirect: 20 * time.Millisecond,
			LibraryWait:   10 * time.Millisecond,
		},
	}
}

// signInReady scripts a sign-in page that redirects to the notebook on submit.
func signInReady(f *fakeSession) {
	f.present[`#ap_email`] = true
	f.present[`#continue`] = true
	f.present[`input[type="password"]`] = true
	f.present[`#signInSubmit`] = true
	f.present[".kp-notebook-library-each-book"] = true
	f.redirects[`#signInSubmit`] = testNotebookURL
}

func newTestPipeline(t *testing.T, opener *fakeOpener) *Pipeline {
	t.Helper()
	p, err := NewPipeline(opener, notebook.DefaultSelectors(), testOptions(), zerolog.Nop())
	require.NoError(t, err)
	return p
}

var testCreds = Credentials{Identifier: "reader@example.com", Secret: "s3cret-value"}

func TestPipeline_Run(t *testing.T) {
	t.Run("isolates a failing item", func(t *testing.T) {
		session := newFakeSession(threeBookLibrary)
		signInReady(session)
		session.details[`[id="A"]#0`] = highlightsMarkup(2)
		session.clickErr[`[id="B"]#0`] = errors.New("detail view crashed")
		session.details[`[id="C"]#0`] = highlightsMarkup(5)

		result, err := newTestPipeline(t, &fakeOpener{session: session}).Run(context.Background(), testCreds)
		require.NoError(t, err)

		require.Len(t, result.Items, 3)
		assert.Equal(t, "A", result.Items[0].ID)
		assert.Equal(t, 2, result.Items[0].HighlightCount)
		assert.Equal(t, "B", result.Items[1].ID)
		assert.Equal(t, 0, result.Items[1].HighlightCount)
		assert.NotNil(t, result.Items[1].Highlights)
		assert.Empty(t, result.Items[1].Highlights)
		assert.Equal(t, "C", result.Items[2].ID)
		assert.Equal(t, 5, result.Items[2].HighlightCount)

		for _, item := range result.Items {
			assert.Equal(t, len(item.Highlights), item.HighlightCount, item.ID)
		}
		assert.Equal(t, 1, result.FailedItems)
		assert.Equal(t, 7, result.AnnotationCount())
		assert.Equal(t, "highlight 1", result.Items[0].Highlights[0].Text)
		assert.Equal(t, "Location 10", result.Items[0].Highlights[0].Location)
		assert.Equal(t, "https://reader.test/a.jpg", result.Items[0].CoverURL)

		assert.Equal(t, 1, session.closeCount())
	})

	t.Run("drives the sign-in flow", func(t *testing.T) {
		session := newFakeSession(threeBookLibrary)
		signInReady(session)

		_, err := newTestPipeline(t, &fakeOpener{session: session}).Run(context.Background(), testCreds)
		require.NoError(t, err)

		assert.Equal(t, []string{testHomeURL, testSignInURL}, session.navigated)
		assert.Equal(t, "reader@example.com", session.typed[`#ap_email`])
		assert.Equal(t, "s3cret-value", session.typed[`input[type="password"]`])
		assert.Contains(t, session.clicks, `#continue#0`)
		assert.Contains(t, session.clicks, `#signInSubmit#0`)
	})

	t.Run("missing continue control is not fatal", func(t *testing.T) {
		session := newFakeSession(threeBookLibrary)
		signInReady(session)
		delete(session.present, `#continue`)

		_, err := newTestPipeline(t, &fakeOpener{session: session}).Run(context.Background(), testCreds)
		require.NoError(t, err)
		assert.NotContains(t, session.clicks, `#continue#0`)
	})

	t.Run("clicks generated-id items by position", func(t *testing.T) {
		library := `<div class="kp-notebook-library-each-book"><span class="kp-notebook-searchable">No Id</span></div>`
		session := newFakeSession(library)
		signInReady(session)
		session.details[".kp-notebook-library-each-book#0"] = highlightsMarkup(1)

		result, err := newTestPipeline(t, &fakeOpener{session: session}).Run(context.Background(), testCreds)
		require.NoError(t, err)

		require.Len(t, result.Items, 1)
		assert.Equal(t, notebook.FallbackID("No Id", "Unknown", 0), result.Items[0].ID)
		assert.Equal(t, 1, result.Items[0].HighlightCount)
	})

	t.Run("keeps null and empty notes apart", func(t *testing.T) {
		session := newFakeSession(`<div class="kp-notebook-library-each-book" id="N"><span class="kp-notebook-searchable">Notes</span></div>`)
		signInReady(session)
		session.details[`[id="N"]#0`] = `<div class="kp-notebook-highlight"><span class="kp-notebook-highlight-text">one</span></div>` +
			`<div class="kp-notebook-highlight"><span class="kp-notebook-highlight-text">two</span><span class="kp-notebook-note-text"></span></div>`

		result, err := newTestPipeline(t, &fakeOpener{session: session}).Run(context.Background(), testCreds)
		require.NoError(t, err)

		highlights := result.Items[0].Highlights
		require.Len(t, highlights, 2)
		assert.Nil(t, highlights[0].Note)
		require.NotNil(t, highlights[1].Note)
		assert.Equal(t, "", *highlights[1].Note)
	})

	t.Run("empty library view degrades to no items", func(t *testing.T) {
		session := newFakeSession(`<html><body>Nothing here</body></html>`)
		signInReady(session)
		delete(session.present, ".kp-notebook-library-each-book")

		result, err := newTestPipeline(t, &fakeOpener{session: session}).Run(context.Background(), testCreds)
		require.NoError(t, err)
		assert.NotNil(t, result.Items)
		assert.Empty(t, result.Items)
		assert.Equal(t, 1, session.closeCount())
	})
}

func TestPipeline_Run_AuthenticationFailures(t *testing.T) {
	t.Run("identifier field not found", func(t *testing.T) {
		session := newFakeSession(`<form><input type="text" name="login"></form>`)
		session.inputs = []browser.InputInfo{{Type: "text", Name: "login"}}

		_, err := newTestPipeline(t, &fakeOpener{session: session}).Run(context.Background(), testCreds)

		var notFound *SelectorNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.ErrorIs(t, err, ErrAuthentication)
		assert.Equal(t, "identifier", notFound.Field)
		assert.Equal(t, notebook.DefaultSelectors().IdentifierFields, notFound.Attempted)
		require.Len(t, notFound.Inputs, 1)
		assert.Contains(t, err.Error(), `name="login"`)
		assert.NotContains(t, err.Error(), testCreds.Secret)
		assert.Equal(t, 1, session.closeCount())
		assert.Empty(t, session.typed)
	})

	t.Run("secret field not found", func(t *testing.T) {
		session := newFakeSession("")
		signInReady(session)
		delete(session.present, `input[type="password"]`)

		_, err := newTestPipeline(t, &fakeOpener{session: session}).Run(context.Background(), testCreds)

		var notFound *SelectorNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "secret", notFound.Field)
		assert.Equal(t, []string{`input[type="password"]`, `#ap_password`}, notFound.Attempted)
		assert.Equal(t, 1, session.closeCount())
	})

	t.Run("redirect never happens", func(t *testing.T) {
		session := newFakeSession(`<p>Hello reader@example.com, enter the code we sent</p>`)
		signInReady(session)
		delete(session.redirects, `#signInSubmit`)

		_, err := newTestPipeline(t, &fakeOpener{session: session}).Run(context.Background(), testCreds)

		var timeout *LoginTimeoutError
		require.ErrorAs(t, err, &timeout)
		assert.ErrorIs(t, err, ErrAuthentication)
		assert.Equal(t, testSignInURL, timeout.LastURL)
		assert.Contains(t, timeout.Snippet, "enter the code")
		assert.NotContains(t, timeout.Snippet, "reader@example.com")
		assert.Equal(t, 1, session.closeCount())
	})

	t.Run("browser cannot start", func(t *testing.T) {
		opener := &fakeOpener{err: errors.New("chrome not found")}

		_, err := newTestPipeline(t, opener).Run(context.Background(), testCreds)

		var authErr *AuthenticationError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "open browser", authErr.Step)
		assert.ErrorIs(t, err, ErrAuthentication)
	})

	t.Run("missing credentials never open a browser", func(t *testing.T) {
		opener := &fakeOpener{session: newFakeSession("")}

		_, err := newTestPipeline(t, opener).Run(context.Background(), Credentials{Identifier: "reader@example.com"})

		assert.ErrorIs(t, err, ErrAuthentication)
		assert.Equal(t, 0, opener.opened)
	})
}

func TestPipeline_Run_Cancelled(t *testing.T) {
	session := newFakeSession(threeBookLibrary)
	signInReady(session)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline(t, &fakeOpener{session: session}).Run(ctx, testCreds)

	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, session.closeCount(), 1)
}

func TestNewPipeline_InvalidPattern(t *testing.T) {
	opts := testOptions()
	opts.Endpoints.URLPattern = "("

	_, err := NewPipeline(&fakeOpener{}, notebook.DefaultSelectors(), opts, zerolog.Nop())
	assert.Error(t, err)
}
