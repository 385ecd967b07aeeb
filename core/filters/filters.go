// Package filters provides ready-made core.Filter predicates.
package filters

import (
	"strings"

	"github.com/jdelaire/tgrambot/core"
	"github.com/jdelaire/tgrambot/core/event"
)

// ChatAllowlist matches events whose chat (or message.chat, for callback
// queries) is one of ids.
func ChatAllowlist(ids ...int64) core.Filter {
	allowed := make(map[int64]bool, len(ids))
	for _, id := range ids {
		allowed[id] = true
	}
	return func(e *event.Event) bool {
		chat := chatOf(e)
		return chat != nil && allowed[chat.Int("id")]
	}
}

// Private matches events from one-to-one chats.
func Private() core.Filter {
	return func(e *event.Event) bool {
		return chatOf(e).String("type") == "private"
	}
}

// Command matches a message whose text starts with /name. A @botname
// suffix is accepted whatever bot it names; use CommandFor in groups
// shared with other bots. The comparison is case-insensitive.
func Command(name string) core.Filter {
	return CommandFor(name, "")
}

// CommandFor is Command restricted to /name and /name@username. An empty
// username accepts any suffix.
func CommandFor(name, username string) core.Filter {
	name = strings.ToLower(strings.TrimPrefix(name, "/"))
	username = strings.TrimPrefix(username, "@")
	return func(e *event.Event) bool {
		cmd, target, _ := parseCommand(e.String("text"))
		if cmd == "" || cmd != name {
			return false
		}
		return target == "" || username == "" || strings.EqualFold(target, username)
	}
}

// TextContains matches events whose text or caption contains substr, ignoring case.
func TextContains(substr string) core.Filter {
	substr = strings.ToLower(substr)
	return func(e *event.Event) bool {
		text := e.String("text")
		if text == "" {
			text = e.String("caption")
		}
		return strings.Contains(strings.ToLower(text), substr)
	}
}

// HasField matches events that carry field, e.g. "photo" or "document".
func HasField(field string) core.Filter {
	return func(e *event.Event) bool {
		return e.Has(field)
	}
}

// All matches when every filter matches. Nil filters are ignored.
func All(fs ...core.Filter) core.Filter {
	return func(e *event.Event) bool {
		for _, f := range fs {
			if f != nil && !f(e) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one filter matches.
func Any(fs ...core.Filter) core.Filter {
	return func(e *event.Event) bool {
		for _, f := range fs {
			if f != nil && f(e) {
				return true
			}
		}
		return false
	}
}

// Not inverts f.
func Not(f core.Filter) core.Filter {
	return func(e *event.Event) bool {
		return !f(e)
	}
}

// ParseCommand extracts the command name and arguments from a message.
// It handles "/command", "/command args", and "/command@botname args".
func ParseCommand(text string) (cmd, args string) {
	cmd, _, args = parseCommand(text)
	return cmd, args
}

func parseCommand(text string) (cmd, target, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", ""
	}

	text = text[1:]
	parts := strings.SplitN(text, " ", 2)
	cmd = parts[0]
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	if at := strings.Index(cmd, "@"); at != -1 {
		cmd, target = cmd[:at], cmd[at+1:]
	}

	return strings.ToLower(cmd), target, args
}

func chatOf(e *event.Event) *event.Event {
	if chat := e.Event("chat"); chat != nil {
		return chat
	}
	return e.Event("message").Event("chat")
}
