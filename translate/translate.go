// Package translate localizes user visible messages.
package translate

import (
	"sync"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is used when the system locale cannot be determined.
const DefaultLocale = "en-US"

var (
	printer *message.Printer
	mutex   sync.Mutex
)

// Locales returns the user's preferred locales, most preferred first.
func Locales() (locales []string) {
	locales, err := locale.GetLocales()
	if err != nil || len(locales) == 0 {
		locales = []string{DefaultLocale}
	}

	return
}

// Use selects the message printer for the best match of locales.
func Use(locales ...string) (tag language.Tag) {
	if len(locales) == 0 {
		locales = []string{DefaultLocale}
	}

	tag = message.MatchLanguage(locales...)

	mutex.Lock()
	defer mutex.Unlock()
	printer = message.NewPrinter(tag)

	return
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	mutex.Lock()
	p := printer
	mutex.Unlock()

	if p == nil {
		Use(Locales()...)
		mutex.Lock()
		p = printer
		mutex.Unlock()
	}

	return p.Sprintf(key, args...)
}
