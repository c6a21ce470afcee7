package export

import (
	"bytes"
	"testing"

	"InkOverlay/internal/render"
	"InkOverlay/internal/state"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	paths := []state.Path{
		line(state.Pt(0, 0), state.Pt(100, 50), state.Pt(200, 0)),
		line(state.Pt(10, 10)),
	}
	require.NoError(t, WritePDF(&buf, paths, 400, 300, render.DefaultStyle()))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestWritePDFEmptySurface(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, nil, 0, 0, render.DefaultStyle()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
