package term

import "strings"

// ColorSupport ranks a terminal's color rendering capability.
type ColorSupport int

const (
	NoColor ColorSupport = iota
	Basic16
	Extended256
	TrueColor
)

// TerminalKind identifies the terminal emulator family for static defaults.
type TerminalKind int

const (
	TerminalUnknown TerminalKind = iota
	TerminalAlacritty
	TerminalKitty
	TerminalITerm2
	TerminalWezTerm
	TerminalTerminalApp
	TerminalWindowsTerminal
	TerminalXterm
	TerminalVTE
)

// MultiplexerKind identifies a terminal multiplexer wrapping the session.
type MultiplexerKind int

const (
	MultiplexerNone MultiplexerKind = iota
	MultiplexerTmux
	MultiplexerScreen
	MultiplexerZellij
)

// CapabilityProfile is the per-terminal/multiplexer feature matrix produced
// by merging static defaults, runtime queries, and multiplexer clamps.
type CapabilityProfile struct {
	Color              ColorSupport
	UnicodeOK          bool
	SynchronizedOutput bool
	KittyKeyboard      bool
	Mouse              bool
	BracketedPaste     bool
	FocusEvents        bool
	Hyperlinks         bool
	Sixel              bool
}

// staticProfile returns the literal per-terminal-kind default table.
func staticProfile(kind TerminalKind) CapabilityProfile {
	switch kind {
	case TerminalAlacritty:
		return CapabilityProfile{
			Color: TrueColor, UnicodeOK: true, SynchronizedOutput: false,
			KittyKeyboard: false, Mouse: true, BracketedPaste: true,
			FocusEvents: true, Hyperlinks: true, Sixel: false,
		}
	case TerminalKitty:
		return CapabilityProfile{
			Color: TrueColor, UnicodeOK: true, SynchronizedOutput: true,
			KittyKeyboard: true, Mouse: true, BracketedPaste: true,
			FocusEvents: true, Hyperlinks: true, Sixel: true,
		}
	case TerminalITerm2:
		return CapabilityProfile{
			Color: TrueColor, UnicodeOK: true, SynchronizedOutput: true,
			KittyKeyboard: false, Mouse: true, BracketedPaste: true,
			FocusEvents: true, Hyperlinks: true, Sixel: true,
		}
	case TerminalWezTerm:
		return CapabilityProfile{
			Color: TrueColor, UnicodeOK: true, SynchronizedOutput: true,
			KittyKeyboard: true, Mouse: true, BracketedPaste: true,
			FocusEvents: true, Hyperlinks: true, Sixel: true,
		}
	case TerminalTerminalApp:
		return CapabilityProfile{
			Color: Extended256, UnicodeOK: true, SynchronizedOutput: false,
			KittyKeyboard: false, Mouse: true, BracketedPaste: true,
			FocusEvents: false, Hyperlinks: false, Sixel: false,
		}
	case TerminalWindowsTerminal:
		return CapabilityProfile{
			Color: TrueColor, UnicodeOK: true, SynchronizedOutput: true,
			KittyKeyboard: false, Mouse: true, BracketedPaste: true,
			FocusEvents: true, Hyperlinks: true, Sixel: false,
		}
	case TerminalXterm:
		return CapabilityProfile{
			Color: Extended256, UnicodeOK: true, SynchronizedOutput: false,
			KittyKeyboard: false, Mouse: true, BracketedPaste: true,
			FocusEvents: false, Hyperlinks: false, Sixel: false,
		}
	case TerminalVTE:
		return CapabilityProfile{
			Color: TrueColor, UnicodeOK: true, SynchronizedOutput: false,
			KittyKeyboard: false, Mouse: true, BracketedPaste: true,
			FocusEvents: true, Hyperlinks: true, Sixel: false,
		}
	default: // TerminalUnknown
		return CapabilityProfile{
			Color: Basic16, UnicodeOK: false, SynchronizedOutput: false,
			KittyKeyboard: false, Mouse: false, BracketedPaste: false,
			FocusEvents: false, Hyperlinks: false, Sixel: false,
		}
	}
}

// mergeMultiplexerLimits applies the multiplexer clamp layer.
func mergeMultiplexerLimits(caps CapabilityProfile, mux MultiplexerKind) CapabilityProfile {
	switch mux {
	case MultiplexerTmux:
		caps.SynchronizedOutput = false
	case MultiplexerScreen:
		if caps.Color > Extended256 {
			caps.Color = Extended256
		}
		caps.KittyKeyboard = false
		caps.Hyperlinks = false
		caps.Sixel = false
		caps.SynchronizedOutput = false
	case MultiplexerZellij, MultiplexerNone:
		// identity
	}
	return caps
}

// DetectCapabilities merges static defaults, runtime query overrides (only
// applied when the corresponding query succeeds), and the multiplexer
// clamp, in that order (§4.3).
func DetectCapabilities(kind TerminalKind, mux MultiplexerKind, querier TerminalQuerier) CapabilityProfile {
	caps := staticProfile(kind)

	if color, ok := querier.QueryColorSupport(); ok {
		caps.Color = color
	}
	if sync, ok := querier.QuerySynchronizedOutput(); ok {
		caps.SynchronizedOutput = sync
	}
	if kitty, ok := querier.QueryKittyKeyboard(); ok {
		caps.KittyKeyboard = kitty
	}

	return mergeMultiplexerLimits(caps, mux)
}

// ApplyNoColor forces color support to NoColor when the environment
// asserts NO_COLOR (any non-empty value), regardless of the profile
// produced by static/runtime/multiplexer merging (§4.3).
func ApplyNoColor(caps CapabilityProfile, noColorEnv string) CapabilityProfile {
	if strings.TrimSpace(noColorEnv) != "" {
		caps.Color = NoColor
	}
	return caps
}
