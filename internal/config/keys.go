package config

import "unicode/utf8"

// keysyms holds the named keys accepted in overlay.cancel_keys. Single
// printable ASCII characters are accepted as well.
var keysyms = map[string]uint32{
	"Escape":    0xff1b,
	"Return":    0xff0d,
	"BackSpace": 0xff08,
	"Tab":       0xff09,
	"Delete":    0xffff,
	"space":     0x0020,
}

// Keysym returns the X keysym for a key name.
func Keysym(name string) (uint32, bool) {
	if sym, ok := keysyms[name]; ok {
		return sym, true
	}
	r, size := utf8.DecodeRuneInString(name)
	if size == len(name) && size == 1 && r > 0x20 && r < 0x7f {
		// Latin-1 keysyms equal their code points; key events carry the
		// unshifted keysym, so letters match in lower case.
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		return uint32(r), true
	}
	return 0, false
}
