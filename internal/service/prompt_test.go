package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("alpha\n\nbeta", "what is beta?")
	want := "Context:\nalpha\n\nbeta\n\nQuestion: what is beta?\n\nAnswer clearly and concisely:"
	require.Equal(t, want, got)
}

func TestBuildPromptEmptyContext(t *testing.T) {
	got := BuildPrompt("", "anything out there?")
	want := "Context:\n\n\nQuestion: anything out there?\n\nAnswer clearly and concisely:"
	require.Equal(t, want, got)
}

func TestBuildPromptVerbatimInsertion(t *testing.T) {
	// No escaping: percent signs, quotes and newlines pass through untouched.
	got := BuildPrompt(`100% "raw"`, "q\nwith newline")
	require.Contains(t, got, `Context:
100% "raw"`)
	require.Contains(t, got, "Question: q\nwith newline")
}
