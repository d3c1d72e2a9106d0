package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsquill-labs/newsquill-cli/internal/core/domain"
)

func resetSearchFlags() {
	searchTopK = 0
	searchAlpha = 0
	searchPool = 0
	searchDecay = 0
	searchJSON = false
	// Changed state persists across Execute calls.
	searchCmd.Flags().Lookup("alpha").Changed = false
}

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Run one hybrid retrieval against the archive", searchCmd.Short)
}

func TestSearchCmd_RequiresExactlyOneArg(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSearchCmd_HasTopKFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("top-k")
	require.NotNil(t, flag, "top-k flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "0", flag.DefValue)
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "sanctions verification"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "Hits:")
	assert.Contains(t, buf.String(), "Deal under strain")
	assert.Contains(t, buf.String(), "https://example.org/strain")
	assert.Contains(t, buf.String(), "2025-03-14")
}

func TestSearchCmd_FlagsOverrideConfiguredDefaults(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	stub, ok := retrievalService.(*stubRetrievalService)
	require.True(t, ok)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "-n", "5", "--alpha", "0.8", "--decay-days", "30", "query"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetSearchFlags()
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	require.Len(t, stub.opts, 1)
	assert.Equal(t, 5, stub.opts[0].TopK)
	assert.InDelta(t, 0.8, stub.opts[0].Alpha, 1e-9)
	assert.Equal(t, 30, stub.opts[0].TimeDecayDays)
	// Unset flags keep configured defaults.
	assert.Equal(t, domain.DefaultLexicalPool, stub.opts[0].LexicalPool)
}

func TestSearchCmd_ExplicitZeroAlphaIsSemanticOnly(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	stub, ok := retrievalService.(*stubRetrievalService)
	require.True(t, ok)

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"search", "--alpha", "0", "query"})
	defer func() {
		rootCmd.SetArgs(nil)
		resetSearchFlags()
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	require.Len(t, stub.opts, 1)
	assert.InDelta(t, domain.AlphaSemanticOnly, stub.opts[0].Alpha, 1e-9,
		"an explicit --alpha 0 must not fall back to the configured default")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "--json", "query"})
	defer func() {
		rootCmd.SetArgs(nil)
		searchJSON = false // Reset flag
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "\"Title\"")
	assert.Contains(t, buf.String(), "\"Score\"")
	assert.Contains(t, buf.String(), "Deal under strain")
}

func TestSearchCmd_ServiceError(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	retrievalService = &stubRetrievalService{err: errors.New("fts index missing")}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search", "query"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval failed")
}

func TestOutputSearchJSON_EmptyResults(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	err := outputSearchJSON(rootCmd, []domain.RetrievalHit{})

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "[]")
}

func TestOutputSearchTable_EmptyResults(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	err := outputSearchTable(rootCmd, []domain.RetrievalHit{})

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No hits found")
}

func TestOutputSearchTable_FallsBackToURLWhenUntitled(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	hits := []domain.RetrievalHit{
		{URL: "https://example.org/untitled", Score: 0.5},
	}

	err := outputSearchTable(rootCmd, hits)

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "[1] https://example.org/untitled (0.500)")
}

func TestSearchSnippet_FlattensAndTruncates(t *testing.T) {
	assert.Equal(t, "one two three", searchSnippet("one\n  two\tthree"))

	long := searchSnippet(string(bytes.Repeat([]byte("a"), 300)))
	assert.Len(t, []rune(long), 181)
	assert.Equal(t, "…", string([]rune(long)[180]))
}
