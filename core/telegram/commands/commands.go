package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
// Aliases let reply-keyboard button labels resolve to the same handler as the
// slash command.
type Command struct {
	Handler      tele.HandlerFunc
	Description  string
	OperatorOnly bool
	Hidden       bool
	Aliases      []string
}
