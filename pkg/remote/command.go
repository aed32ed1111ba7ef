// Package remote implements the line-oriented remote-control protocol used
// by experiment harnesses to drive trials over TCP.
//
// Commands are ASCII and case-insensitive:
//
//	start      begin a trial (only while stopped)
//	stop       end the trial (only while running)
//	lambda<N>  select difficulty index N (only while stopped)
//	exit       stop if running, then terminate the application
//
// Anything else is ignored and the connection stays open.
package remote

import (
	"fmt"
	"strconv"
	"strings"
)

// CommandKind identifies a protocol command.
type CommandKind int

const (
	CmdStart CommandKind = iota + 1
	CmdStop
	CmdLambda
	CmdExit
)

const lambdaToken = "lambda"

func (k CommandKind) String() string {
	switch k {
	case CmdStart:
		return "start"
	case CmdStop:
		return "stop"
	case CmdLambda:
		return lambdaToken
	case CmdExit:
		return "exit"
	default:
		return fmt.Sprintf("command(%d)", int(k))
	}
}

// Command is a decoded protocol command.
type Command struct {
	Kind  CommandKind `json:"kind"`
	Index int         `json:"index,omitempty"` // CmdLambda only
}

func (c Command) String() string {
	if c.Kind == CmdLambda {
		return lambdaToken + strconv.Itoa(c.Index)
	}
	return c.Kind.String()
}

// ParseCommand decodes one command. It reports false for anything that is
// not a well-formed command.
func ParseCommand(s string) (Command, bool) {
	s = strings.ToLower(strings.TrimSpace(s))

	switch s {
	case "start":
		return Command{Kind: CmdStart}, true
	case "stop":
		return Command{Kind: CmdStop}, true
	case "exit":
		return Command{Kind: CmdExit}, true
	}

	if rest, ok := strings.CutPrefix(s, lambdaToken); ok {
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return Command{}, false
		}
		return Command{Kind: CmdLambda, Index: n}, true
	}
	return Command{}, false
}

// SplitCommands breaks one received chunk into candidate commands. Peers may
// send bare words or newline-terminated lines.
func SplitCommands(chunk string) []string {
	fields := strings.FieldsFunc(chunk, func(r rune) bool {
		return r == '\n' || r == '\r' || r == 0
	})
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
