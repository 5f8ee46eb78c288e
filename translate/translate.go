// Package translate formats user-facing messages for the user's locale.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("avrmc: locale: %v", err)
	}

	SetLocale(locales...)
}

// SetLocale selects the best match of 'locales' for messages, falling back
// to en-US.
func SetLocale(locales ...string) {
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}

// Hex formats an address or word as the listings do, ie "0x01a4".
func Hex(value int) string {
	if value < 0 {
		return printer.Sprintf("-0x%04x", -value)
	}
	return printer.Sprintf("0x%04x", value)
}
