// Package utterance classifies recognized speech into commands and yes/no answers.
package utterance

import "strings"

const openPrefix = "open "

type Kind string

const (
	KindOpen  Kind = "open"
	KindQuery Kind = "query"
)

// Command is the routing decision for one utterance.
type Command struct {
	Kind Kind
	// App is the trimmed, lower-cased application name for KindOpen. It may be empty.
	App string
	// Text is the lower-cased, whitespace-collapsed utterance for KindQuery.
	Text string
}

type Answer string

const (
	AnswerYes     Answer = "yes"
	AnswerNo      Answer = "no"
	AnswerInvalid Answer = "invalid"
)

// Collapse trims text and collapses internal whitespace runs to one space.
func Collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Normalize collapses whitespace, lower-cases, and strips trailing sentence punctuation.
func Normalize(text string) string {
	normalized := strings.ToLower(Collapse(text))
	normalized = strings.TrimRight(normalized, ".!?,")
	return strings.TrimSpace(normalized)
}

// ParseCommand routes text starting with "open " (any case) to KindOpen and
// everything else to KindQuery.
func ParseCommand(text string) Command {
	lead := strings.TrimLeft(text, " \t\r\n")
	if len(lead) >= len(openPrefix) && strings.EqualFold(lead[:len(openPrefix)], openPrefix) {
		return Command{Kind: KindOpen, App: Normalize(lead[len(openPrefix):])}
	}
	return Command{Kind: KindQuery, Text: strings.ToLower(Collapse(text))}
}

// ParseAnswer matches a normalized reply exactly against "yes" and "no".
func ParseAnswer(text string) Answer {
	switch Normalize(text) {
	case "yes":
		return AnswerYes
	case "no":
		return AnswerNo
	default:
		return AnswerInvalid
	}
}
