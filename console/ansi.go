package console

// Escape sequences shared by the input fuser, the lock screen and the
// surfaces that interpret them.
const (
	ClearScreen = "\x1b[2J\x1b[3J\x1b[H"

	CursorUp    = "\x1b[A"
	CursorDown  = "\x1b[B"
	CursorRight = "\x1b[C"
	CursorLeft  = "\x1b[D"
	Home        = "\x1b[H"
	End         = "\x1b[F"
)

const (
	keyBackspace byte = 0x08
	keyCR        byte = '\r'
	keyLF        byte = '\n'
	keyTab       byte = '\t'
	keyDEL       byte = 0x7f
)
