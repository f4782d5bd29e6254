package term

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// WrapForMultiplexer wraps a rendered escape-sequence payload for safe
// passthrough across a terminal multiplexer boundary (§6.1). tmux requires
// every embedded ESC in the payload to be doubled inside a `tmux;`-prefixed
// DCS envelope; screen requires a plain DCS envelope with no doubling;
// zellij and no multiplexer pass the payload through unchanged.
func WrapForMultiplexer(payload string, mux MultiplexerKind) string {
	switch mux {
	case MultiplexerTmux:
		doubled := strings.ReplaceAll(payload, ansi.ESC, ansi.ESC+ansi.ESC)
		return ansi.ESC + "Ptmux;" + doubled + ansi.ESC + "\\"
	case MultiplexerScreen:
		return ansi.ESC + "P" + payload + ansi.ESC + "\\"
	default: // MultiplexerZellij, MultiplexerNone
		return payload
	}
}
