package present

// Nav is what a key does in presentation mode.
type Nav int

const (
	NavNone Nav = iota
	NavPrevious
	NavNext
	NavFirst
	NavLast
	NavExit
)

var keymap = map[string]Nav{
	"left":   NavPrevious,
	"up":     NavPrevious,
	"pgup":   NavPrevious,
	"right":  NavNext,
	"down":   NavNext,
	"pgdown": NavNext,
	" ":      NavNext,
	"home":   NavFirst,
	"end":    NavLast,
	"esc":    NavExit,
	"q":      NavExit,
	"ctrl+c": NavExit,
}

// NavFor maps a bubbletea key string to a navigation.
func NavFor(key string) Nav {
	return keymap[key]
}
