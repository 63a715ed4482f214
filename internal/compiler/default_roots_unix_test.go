//go:build aix || darwin || dragonfly || freebsd || (js && wasm) || linux || netbsd || openbsd || solaris

package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultRootsUnix(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		env      map[string]string
		expected []string
	}{
		{
			name:     "defaults",
			env:      map[string]string{},
			expected: []string{"/usr/local/share/jacdac/services", "/usr/share/jacdac/services"},
		},
		{
			name:     "home",
			env:      map[string]string{"HOME": "/home/dev"},
			expected: []string{"/home/dev/.local/share/jacdac/services", "/usr/local/share/jacdac/services", "/usr/share/jacdac/services"},
		},
		{
			name:     "xdg",
			env:      map[string]string{"HOME": "/home/dev", "XDG_DATA_HOME": "/data", "XDG_DATA_DIRS": "/opt/share::/srv"},
			expected: []string{"/data/jacdac/services", "/opt/share/jacdac/services", "/srv/jacdac/services"},
		},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			lookup := func(k string) (string, bool) {
				v, ok := testCase.env[k]
				return v, ok
			}
			require.Equal(t, testCase.expected, getDefaultRoots(lookup))
		})
	}
}
