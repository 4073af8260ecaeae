// Package cli parses hark command-line arguments.
package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

type Command string

const (
	CommandRun        Command = "run"
	CommandToggle     Command = "toggle"
	CommandSay        Command = "say"
	CommandStatus     Command = "status"
	CommandHistory    Command = "history"
	CommandApps       Command = "apps"
	CommandAppsRemove Command = "apps remove"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:     {},
	CommandToggle:  {},
	CommandSay:     {},
	CommandStatus:  {},
	CommandHistory: {},
	CommandApps:    {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

type Parsed struct {
	Command    Command
	Args       []string
	ConfigPath string
	LogLevel   string
	Verbose    bool
	ShowHelp   bool
}

// Text joins positional arguments, e.g. the utterance passed to say.
func (p Parsed) Text() string {
	return strings.Join(p.Args, " ")
}

func Parse(args []string) (Parsed, error) {
	fs := pflag.NewFlagSet("hark", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SetInterspersed(false)

	var parsed Parsed
	var showVersion bool
	fs.StringVar(&parsed.ConfigPath, "config", "", "config file path")
	fs.StringVar(&parsed.LogLevel, "log-level", "info", "log level")
	fs.BoolVarP(&parsed.Verbose, "verbose", "v", false, "mirror logs to stderr")
	fs.BoolVarP(&parsed.ShowHelp, "help", "h", false, "show help")
	fs.BoolVar(&showVersion, "version", false, "show version")

	if err := fs.Parse(args); err != nil {
		return Parsed{}, err
	}
	if fs.Changed("config") && strings.TrimSpace(parsed.ConfigPath) == "" {
		return Parsed{}, errors.New("--config requires a path")
	}

	switch {
	case parsed.ShowHelp:
		parsed.Command = CommandHelp
		return parsed, nil
	case showVersion:
		parsed.Command = CommandVersion
		return parsed, nil
	}

	rest := fs.Args()
	if len(rest) == 0 {
		parsed.Command = CommandHelp
		parsed.ShowHelp = true
		return parsed, nil
	}

	cmd := Command(rest[0])
	if _, ok := validCommands[cmd]; !ok {
		if strings.HasPrefix(rest[0], "-") {
			return Parsed{}, fmt.Errorf("unknown flag: %s", rest[0])
		}
		return Parsed{}, fmt.Errorf("unknown command: %s", rest[0])
	}
	parsed.Command = cmd
	parsed.ShowHelp = cmd == CommandHelp
	rest = rest[1:]

	switch cmd {
	case CommandSay:
		if strings.TrimSpace(strings.Join(rest, " ")) == "" {
			return Parsed{}, errors.New("say requires text")
		}
		parsed.Args = rest
	case CommandApps:
		if len(rest) == 0 {
			break
		}
		if rest[0] != "remove" {
			return Parsed{}, fmt.Errorf("unknown apps subcommand: %s", rest[0])
		}
		if len(rest) < 2 {
			return Parsed{}, errors.New("apps remove requires an app name")
		}
		parsed.Command = CommandAppsRemove
		parsed.Args = rest[1:]
	default:
		if len(rest) > 0 {
			return Parsed{}, fmt.Errorf("unexpected arguments after command %q", string(cmd))
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [flags] <command> [args]

Commands:
  run                Start the voice command daemon
  toggle             Start listening, or stop when already listening
  say TEXT...        Handle TEXT as if it had been spoken
  status             Print current state and status text
  history            Print the AI conversation history
  apps               List registered apps
  apps remove NAME   Remove a registered app
  doctor             Run configuration and environment checks
  version            Print version information
  help               Show this help

Flags:
  --config PATH      Config file path (default: $XDG_CONFIG_HOME/hark/config.jsonc)
  --log-level LEVEL  debug, info, warn, or error (default: info)
  -v, --verbose      Mirror logs to stderr
  -h, --help         Show help
  --version          Show version
`, binaryName)
}
