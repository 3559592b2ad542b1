// Package i18n loads the embedded message catalogs and hands out
// localizers for user-facing strings.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

// New builds a bundle with every embedded locale loaded. English is the
// default language.
func New() (*goi18n.Bundle, error) {
	bundle := goi18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("reading embedded locales: %w", err)
	}
	for _, e := range entries {
		if _, err := bundle.LoadMessageFileFS(localeFS, "locales/"+e.Name()); err != nil {
			return nil, fmt.Errorf("loading locale %s: %w", e.Name(), err)
		}
	}
	return bundle, nil
}

// Localizer returns a localizer for the given language tag, falling back
// to English for unknown tags.
func Localizer(bundle *goi18n.Bundle, lang string) *goi18n.Localizer {
	return goi18n.NewLocalizer(bundle, lang, "en")
}

// T localizes a message by id. On failure it logs and returns the id so
// callers always get a usable string.
func T(loc *goi18n.Localizer, id string, data map[string]any) string {
	msg, err := loc.Localize(&goi18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: data,
	})
	if err != nil {
		slog.Warn("localization failed", "id", id, "error", err)
		return id
	}
	return msg
}
