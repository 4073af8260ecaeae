package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitArgv(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "   ", want: nil},
		{name: "simple", input: "zenity --file-selection", want: []string{"zenity", "--file-selection"}},
		{name: "double quotes", input: `zenity --title "Select App"`, want: []string{"zenity", "--title", "Select App"}},
		{name: "single quotes are literal", input: `echo 'a\b "c"'`, want: []string{"echo", `a\b "c"`}},
		{name: "escape inside double quotes", input: `echo "say \"yes\""`, want: []string{"echo", `say "yes"`}},
		{name: "other backslash kept in double quotes", input: `echo "C:\apps"`, want: []string{"echo", `C:\apps`}},
		{name: "escaped space", input: `open my\ app`, want: []string{"open", "my app"}},
		{name: "empty quoted argument", input: `cmd "" next`, want: []string{"cmd", "", "next"}},
		{name: "adjacent quoting joins", input: `cmd --flag="a b"'c'`, want: []string{"cmd", "--flag=a bc"}},
		{name: "comment", input: `# setsid -f`, want: nil},
		{name: "unterminated double quote", input: `cmd "oops`, wantErr: `unterminated " quote starting at column 5`},
		{name: "unterminated single quote", input: `cmd 'oops`, wantErr: "unterminated ' quote"},
		{name: "trailing escape", input: `cmd oops\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := splitArgv(tc.input)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseCommandKeepsRaw(t *testing.T) {
	cmd, err := parseCommand(" setsid -f ")
	require.NoError(t, err)
	require.Equal(t, CommandConfig{Raw: " setsid -f ", Argv: []string{"setsid", "-f"}}, cmd)
}

func TestMustCommandPanicsOnInvalidInput(t *testing.T) {
	require.Panics(t, func() {
		_ = mustCommand(`mycmd "unterminated`)
	})
}
