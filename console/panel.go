package console

import (
	"strconv"
	"strings"
)

// Template is a lock-screen layout. Render substitutes the tokens below.
type Template string

const (
	tokBattery = "{BAT}"
	tokMemUsed = "{MEMU}"
	tokMemTot  = "{MEMT}"
	tokCtrl    = "{CTRL}"
)

// DefaultTemplate is the stock lock screen.
const DefaultTemplate Template = ClearScreen +
	" .----------------------------.\n" +
	" |     .---.                  |\n" +
	" |     |   |     t-deck vt    |\n" +
	" |   [=======]                |\n" +
	" |   [   o   ]    locked      |\n" +
	" |   [=======]                |\n" +
	" '----------------------------'\n" +
	"\n" +
	"   Battery  " + tokBattery + " %\n" +
	"   Memory   " + tokMemUsed + " / " + tokMemTot + " KB\n" +
	"   Ctrl     " + tokCtrl + "\n" +
	"\n" +
	"   Press Enter to unlock\n"

// Status is the live data shown on the lock screen.
type Status struct {
	// Battery is 0-100, or negative when no battery is known.
	Battery  int
	MemUsed  int
	MemTotal int
	Ctrl     bool
}

func (s Status) normalized() Status {
	if s.Battery < 0 {
		s.Battery = -1
	}
	if s.Battery > 100 {
		s.Battery = 100
	}
	s.MemUsed /= 1024
	s.MemTotal /= 1024
	return s
}

// Panel formats the lock screen and remembers the last frame it issued.
type Panel struct {
	tmpl        Template
	showUnknown bool

	last    Status
	hasLast bool
}

// NewPanel returns a Panel for tmpl. When showUnknown is false, template
// lines carrying the battery token are dropped while no battery is known;
// otherwise the field reads "---".
func NewPanel(tmpl Template, showUnknown bool) *Panel {
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	return &Panel{tmpl: tmpl, showUnknown: showUnknown}
}

// Render returns the full lock-screen frame for s.
func (p *Panel) Render(s Status) []byte {
	s = s.normalized()
	r := strings.NewReplacer(
		tokBattery, batteryField(s.Battery),
		tokMemUsed, strconv.Itoa(s.MemUsed),
		tokMemTot, strconv.Itoa(s.MemTotal),
		tokCtrl, ctrlField(s.Ctrl),
	)

	var b strings.Builder
	b.Grow(len(p.tmpl) + 16)
	for _, line := range strings.SplitAfter(string(p.tmpl), "\n") {
		if s.Battery < 0 && !p.showUnknown && strings.Contains(line, tokBattery) {
			continue
		}
		b.WriteString(r.Replace(line))
	}
	return []byte(b.String())
}

// Changed reports whether s differs from the last issued frame.
func (p *Panel) Changed(s Status) bool {
	return !p.hasLast || p.last != s.normalized()
}

// Frame returns the frame for s, or nil when nothing visible changed since
// the last frame and force is false.
func (p *Panel) Frame(s Status, force bool) []byte {
	if !force && !p.Changed(s) {
		return nil
	}
	p.last = s.normalized()
	p.hasLast = true
	return p.Render(s)
}

// Reset forgets the last frame so the next one is always issued.
func (p *Panel) Reset() {
	p.hasLast = false
}

func batteryField(pct int) string {
	if pct < 0 {
		return "---"
	}
	s := strconv.Itoa(pct)
	for len(s) < 3 {
		s = " " + s
	}
	return s
}

func ctrlField(on bool) string {
	if on {
		return "ON"
	}
	return "off"
}
