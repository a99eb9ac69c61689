package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCommand is returned for a command outside the timer vocabulary.
var ErrUnknownCommand = errors.New("unknown timer command")

// Command is a timer control sent from the overlay or the panel.
type Command string

const (
	CommandPause   Command = "pause"
	CommandReset   Command = "reset"
	CommandConfirm Command = "confirm"
)

// Commands lists the accepted commands.
var Commands = []Command{CommandPause, CommandReset, CommandConfirm}

// Valid reports whether command is part of the vocabulary.
func (command Command) Valid() bool {
	switch command {
	case CommandPause, CommandReset, CommandConfirm:
		return true
	default:
		return false
	}
}

// ParseCommand converts user input into a Command.
func ParseCommand(value string) (Command, error) {
	command := Command(strings.ToLower(strings.TrimSpace(value)))
	if !command.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, value)
	}
	return command, nil
}
