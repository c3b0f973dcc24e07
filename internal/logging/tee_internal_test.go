package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTee_FileFailureIsReportedOnce(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "broken.log"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	var terminal bytes.Buffer
	tee := &Tee{terminal: &terminal, file: f}

	_, err = tee.Write([]byte("one\n"))
	require.NoError(t, err, "the terminal write decides the result")
	_, err = tee.Write([]byte("two\n"))
	require.NoError(t, err)

	out := terminal.String()
	assert.Equal(t, 1, bytes.Count(terminal.Bytes(), []byte("log file write failed")))
	assert.Contains(t, out, "one\n")
	assert.Contains(t, out, "two\n")

	assert.ErrorIs(t, tee.Close(), os.ErrClosed)
}
