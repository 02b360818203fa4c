// Package i18n resolves user-facing texts for the supported locales.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"seminar-bot/internal/domain"
)

var tags = map[domain.Locale]language.Tag{
	domain.LocaleRU: language.Russian,
	domain.LocaleUZ: language.Uzbek,
}

// Catalog maps message keys to localized texts. Unknown keys resolve to the Russian
// text and, failing that, to the key itself.
type Catalog struct {
	printers map[domain.Locale]*message.Printer
	fallback map[string]string
}

// New builds a catalog from the bundled translations.
func New() (*Catalog, error) {
	return NewFromMessages(map[domain.Locale]map[string]string{
		domain.LocaleRU: russian,
		domain.LocaleUZ: uzbek,
	})
}

// NewFromMessages builds a catalog from explicit translations.
func NewFromMessages(messages map[domain.Locale]map[string]string) (*Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.Russian))
	for locale, texts := range messages {
		tag, ok := tags[locale]
		if !ok {
			return nil, fmt.Errorf("i18n: unsupported locale %q", locale)
		}
		for key, text := range texts {
			if err := b.SetString(tag, key, text); err != nil {
				return nil, fmt.Errorf("i18n: set %s/%s: %w", locale, key, err)
			}
		}
	}

	printers := make(map[domain.Locale]*message.Printer, len(tags))
	for locale, tag := range tags {
		printers[locale] = message.NewPrinter(tag, message.Catalog(b))
	}
	fallback := make(map[string]string, len(messages[domain.DefaultLocale]))
	for key, text := range messages[domain.DefaultLocale] {
		fallback[key] = text
	}
	return &Catalog{printers: printers, fallback: fallback}, nil
}

// Text resolves key for locale. It never fails.
func (c *Catalog) Text(locale domain.Locale, key string) string {
	p, ok := c.printers[locale]
	if !ok {
		p = c.printers[domain.DefaultLocale]
	}
	fb, ok := c.fallback[key]
	if !ok {
		fb = key
	}
	return p.Sprintf(message.Key(key, fb))
}
