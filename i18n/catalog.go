// Package i18n translates workflow labels.
//
// Translations are read from files named "labels.<language tag>.ini" in a directory, for example:
//
//	; labels.de.ini
//	action.checkout = Auschecken
//	workflow.1.transition.3@Approve = Freigeben
package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/ini.v1"
)

// Catalog implements core.Translator.
type Catalog struct {
	builder *catalog.Builder
	matcher language.Matcher
	tags    []language.Tag // matcher index -> tag
}

// New creates a catalog from a map: language tag -> key -> translation.
func New(translations map[string]map[string]string) (*Catalog, error) {

	var builder = catalog.NewBuilder(catalog.Fallback(language.English))
	var tags = []language.Tag{language.English} // first tag is the default

	for lang, entries := range translations {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("parsing language %q: %w", lang, err)
		}
		for key, value := range entries {
			if err := builder.SetString(tag, key, escape(value)); err != nil {
				return nil, fmt.Errorf("adding %s translation of %s: %w", tag, key, err)
			}
		}
		if tag != language.English {
			tags = append(tags, tag)
		}
	}

	return &Catalog{
		builder: builder,
		matcher: language.NewMatcher(tags),
		tags:    tags,
	}, nil
}

// Load reads all label files in a directory. A missing directory results in an empty catalog.
func Load(dir string) (*Catalog, error) {

	files, err := filepath.Glob(filepath.Join(dir, "labels.*.ini"))
	if err != nil {
		return nil, err
	}

	var translations = make(map[string]map[string]string)

	for _, file := range files {
		lang := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(file), "labels."), ".ini")
		cfg, err := ini.Load(file)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("loading %s: %w", file, err)
		}
		translations[lang] = cfg.Section("").KeysHash()
	}

	return New(translations)
}

// Translate returns the translation of key in the language which matches locale best, or defaultLabel.
// The locale can be a language tag or an Accept-Language header value.
func (c *Catalog) Translate(key, defaultLabel, locale string) string {
	_, index := language.MatchStrings(c.matcher, locale)
	var printer = message.NewPrinter(c.tags[index], message.Catalog(c.builder))
	return printer.Sprintf(message.Key(key, escape(defaultLabel)))
}

// Languages returns the tags of all languages with translations.
func (c *Catalog) Languages() []language.Tag {
	return c.builder.Languages()
}

// escape protects labels from being interpreted as format strings.
func escape(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}
