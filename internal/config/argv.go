package config

import (
	"fmt"
	"strings"
	"unicode"
)

// parseCommand splits raw into argv using shell-style quoting. Single quotes
// are literal, double quotes honor backslash escapes, and a leading '#'
// disables the command.
func parseCommand(raw string) (CommandConfig, error) {
	argv, err := splitArgv(raw)
	if err != nil {
		return CommandConfig{}, err
	}
	return CommandConfig{Raw: raw, Argv: argv}, nil
}

func mustCommand(raw string) CommandConfig {
	cmd, err := parseCommand(raw)
	if err != nil {
		panic(err)
	}
	return cmd
}

func splitArgv(raw string) ([]string, error) {
	input := strings.TrimSpace(raw)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var (
		argv    []string
		word    strings.Builder
		inWord  bool
		quote   rune
		quoteAt int
	)
	runes := []rune(input)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch quote {
		case '\'':
			if r == '\'' {
				quote = 0
			} else {
				word.WriteRune(r)
			}
			continue
		case '"':
			switch {
			case r == '"':
				quote = 0
			case r == '\\' && i+1 < len(runes) && strings.ContainsRune(`"\$`+"`", runes[i+1]):
				i++
				word.WriteRune(runes[i])
			default:
				word.WriteRune(r)
			}
			continue
		}

		switch {
		case unicode.IsSpace(r):
			if inWord {
				argv = append(argv, word.String())
				word.Reset()
				inWord = false
			}
		case r == '\'' || r == '"':
			quote, quoteAt, inWord = r, i+1, true
		case r == '\\':
			if i+1 >= len(runes) {
				return nil, fmt.Errorf("unterminated escape at end of command %q", input)
			}
			i++
			word.WriteRune(runes[i])
			inWord = true
		default:
			word.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote starting at column %d in command %q", quote, quoteAt, input)
	}
	if inWord {
		argv = append(argv, word.String())
	}
	return argv, nil
}
