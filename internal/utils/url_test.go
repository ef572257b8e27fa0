package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"https://cdn.example.com/client", "a.txt", "https://cdn.example.com/client/a.txt"},
		{"https://cdn.example.com/client/", "data\\maps\\m 1.bin", "https://cdn.example.com/client/data/maps/m%201.bin"},
		{"http://127.0.0.1:8080", "bin/game.exe", "http://127.0.0.1:8080/bin/game.exe"},
		{"https://cdn.example.com/c?v=2", "x.pak", "https://cdn.example.com/c/x.pak?v=2"},
	}

	for _, tt := range tests {
		got, err := JoinURL(tt.base, tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestValidateHTTPURL(t *testing.T) {
	assert.NoError(t, ValidateHTTPURL("https://genesisproj.online/downloads/file_list.json"))
	assert.Error(t, ValidateHTTPURL("ftp://example.com"))
	assert.Error(t, ValidateHTTPURL("https://"))
	assert.Error(t, ValidateHTTPURL("://bad"))
}
