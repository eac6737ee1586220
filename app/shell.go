package app

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"tdeckvt/console"
	"tdeckvt/hal"
)

const (
	prompt     = "> "
	maxLine    = 256
	maxHistory = 16

	keyInterrupt = 0x03 // Ctrl+C
	keyClear     = 0x0C // Ctrl+L
	keyKillLine  = 0x15 // Ctrl+U
	keyBackspace = 0x7F
	keyEscape    = 0x1B
)

type cmdFunc func(sh *shell, args []string) error

type command struct {
	Name string
	Desc string
	Run  cmdFunc
}

var commands = map[string]command{}

func register(cmd command) {
	commands[cmd.Name] = cmd
}

func init() {
	register(command{Name: "help", Desc: "list commands", Run: cmdHelp})
	register(command{Name: "echo", Desc: "print arguments", Run: cmdEcho})
	register(command{Name: "clear", Desc: "clear the screen", Run: cmdClear})
	register(command{Name: "lock", Desc: "lock the console", Run: cmdLock})
	register(command{Name: "bat", Desc: "battery charge", Run: cmdBattery})
	register(command{Name: "mem", Desc: "heap usage", Run: cmdMem})
	register(command{Name: "ctrl", Desc: "toggle Ctrl mode: ctrl [on|off]", Run: cmdCtrl})
	register(command{Name: "size", Desc: "terminal grid", Run: cmdSize})
	register(command{Name: "exit", Desc: "close the console", Run: cmdExit})
}

// shell is a line editor over the console byte stream. Input arrives
// already fused: text, CR as LF, DEL for backspace and VT100 cursor keys.
type shell struct {
	con *console.Console
	mem console.MemSource
	out io.Writer

	line    []byte
	esc     []byte
	history []string
	recall  int
}

func newShell(con *console.Console, mem console.MemSource) *shell {
	return &shell{con: con, mem: mem, out: con}
}

func (sh *shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format, args...)
}

func (sh *shell) prompt() {
	sh.line = sh.line[:0]
	sh.recall = len(sh.history)
	io.WriteString(sh.out, prompt)
}

// feed handles input bytes. A non-nil error ends the session.
func (sh *shell) feed(b []byte) error {
	for _, c := range b {
		if len(sh.esc) > 0 || c == keyEscape {
			sh.escape(c)
			continue
		}
		switch c {
		case '\n':
			io.WriteString(sh.out, "\n")
			line := strings.TrimSpace(string(sh.line))
			if err := sh.exec(line); err != nil {
				return err
			}
			if sh.con.Enabled() {
				sh.prompt()
			}
		case keyBackspace:
			if len(sh.line) > 0 {
				sh.line = sh.line[:len(sh.line)-1]
				io.WriteString(sh.out, console.CursorLeft+"\x1b[K")
			}
		case keyInterrupt:
			io.WriteString(sh.out, "^C\n")
			sh.prompt()
		case keyKillLine:
			sh.replaceLine("")
		case keyClear:
			io.WriteString(sh.out, console.ClearScreen)
			io.WriteString(sh.out, prompt)
			sh.out.Write(sh.line)
		default:
			if c < 0x20 || c > 0x7E || len(sh.line) >= maxLine {
				continue
			}
			sh.line = append(sh.line, c)
			sh.out.Write([]byte{c})
		}
	}
	return nil
}

// escape collects a CSI sequence and acts on the cursor keys.
func (sh *shell) escape(c byte) {
	sh.esc = append(sh.esc, c)
	if len(sh.esc) < 3 {
		if len(sh.esc) == 2 && c != '[' {
			sh.esc = sh.esc[:0]
		}
		return
	}
	seq := string(sh.esc)
	sh.esc = sh.esc[:0]

	switch seq {
	case console.CursorUp:
		if sh.recall > 0 {
			sh.recall--
			sh.replaceLine(sh.history[sh.recall])
		}
	case console.CursorDown:
		if sh.recall < len(sh.history)-1 {
			sh.recall++
			sh.replaceLine(sh.history[sh.recall])
		} else {
			sh.recall = len(sh.history)
			sh.replaceLine("")
		}
	}
}

func (sh *shell) replaceLine(s string) {
	for range sh.line {
		io.WriteString(sh.out, console.CursorLeft)
	}
	io.WriteString(sh.out, "\x1b[K")
	sh.line = append(sh.line[:0], s...)
	io.WriteString(sh.out, s)
}

func (sh *shell) exec(line string) error {
	if line == "" {
		return nil
	}
	if len(sh.history) == 0 || sh.history[len(sh.history)-1] != line {
		sh.history = append(sh.history, line)
		if len(sh.history) > maxHistory {
			sh.history = sh.history[1:]
		}
	}

	args := strings.Fields(line)
	cmd, ok := commands[args[0]]
	if !ok {
		sh.printf("%s: command not found\n", args[0])
		return nil
	}
	err := cmd.Run(sh, args[1:])
	if errors.Is(err, hal.ErrQuit) {
		return err
	}
	if err != nil {
		sh.printf("%s: %v\n", cmd.Name, err)
	}
	return nil
}

func cmdHelp(sh *shell, args []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sh.printf("  %-6s %s\n", name, commands[name].Desc)
	}
	return nil
}

func cmdEcho(sh *shell, args []string) error {
	sh.printf("%s\n", strings.Join(args, " "))
	return nil
}

func cmdClear(sh *shell, args []string) error {
	io.WriteString(sh.out, console.ClearScreen)
	return nil
}

func cmdLock(sh *shell, args []string) error {
	sh.con.Disable()
	return nil
}

func cmdBattery(sh *shell, args []string) error {
	pct := sh.con.Battery()
	if pct < 0 {
		sh.printf("no battery\n")
		return nil
	}
	sh.printf("%d%%\n", pct)
	return nil
}

func cmdMem(sh *shell, args []string) error {
	if sh.mem == nil {
		return errors.New("no memory source")
	}
	used, total := sh.mem.MemUsage()
	sh.printf("heap %d / %d KB\n", used/1024, total/1024)
	return nil
}

func cmdCtrl(sh *shell, args []string) error {
	mod := sh.con.Modifier()
	if mod == nil {
		return errors.New("no modifier button")
	}
	switch {
	case len(args) == 0:
		mod.Set(!mod.Active())
	case args[0] == "on":
		mod.Set(true)
	case args[0] == "off":
		mod.Set(false)
	default:
		return errors.New("usage: ctrl [on|off]")
	}
	state := "off"
	if mod.Active() {
		state = "on"
	}
	sh.printf("ctrl %s\n", state)
	return nil
}

func cmdSize(sh *shell, args []string) error {
	cols, rows := sh.con.Size()
	sh.printf("%dx%d\n", cols, rows)
	return nil
}

func cmdExit(sh *shell, args []string) error {
	return hal.ErrQuit
}
