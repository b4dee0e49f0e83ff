package net

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareLinkRoundTrip(t *testing.T) {
	link := ShareLink("192.168.1.20", 9000, "team")
	assert.Equal(t, "localboard://192.168.1.20:9000/team", link)

	addr, board, err := ParseShareLink(link)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20:9000", addr)
	assert.Equal(t, "team", board)
}

func TestParseShareLink(t *testing.T) {
	tests := []struct {
		link  string
		addr  string
		board string
	}{
		{"localboard://10.0.0.5", "10.0.0.5:8888", ""},
		{"localboard://10.0.0.5:1234/", "10.0.0.5:1234", ""},
		{"10.0.0.5:1234/b", "10.0.0.5:1234", "b"},
		{"  localboard://host/b  ", "host:8888", "b"},
	}
	for _, tt := range tests {
		addr, board, err := ParseShareLink(tt.link)
		require.NoError(t, err, tt.link)
		assert.Equal(t, tt.addr, addr, tt.link)
		assert.Equal(t, tt.board, board, tt.link)
	}

	_, _, err := ParseShareLink("localboard://")
	assert.Error(t, err)
}
