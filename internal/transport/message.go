package transport

import (
	"errors"
	"fmt"
	"strings"
)

// MaxMessageSize bounds a line accepted from remote callers.
const MaxMessageSize = 512

var (
	ErrEmptyMessage     = errors.New("message is required")
	ErrMessageTooLong   = fmt.Errorf("message exceeds %d bytes", MaxMessageSize)
	ErrMultilineMessage = errors.New("message must be a single line")
)

// CleanMessage trims trailing line endings from a message submitted over HTTP
// or MCP and rejects what would not go out as exactly one line.
func CleanMessage(message string) (string, error) {
	message = strings.TrimRight(message, "\r\n")
	switch {
	case strings.TrimSpace(message) == "":
		return "", ErrEmptyMessage
	case len(message) > MaxMessageSize:
		return "", ErrMessageTooLong
	case strings.ContainsAny(message, "\r\n"):
		return "", ErrMultilineMessage
	}
	return message, nil
}
