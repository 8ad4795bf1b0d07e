// Package i18n holds the translated user facing messages of the contact API.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when nothing better matches the request.
const DefaultLocale = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

// Catalog maps locale -> dotted key -> message.
type Catalog struct {
	messages map[string]map[string]string
	locales  []string
	matcher  language.Matcher
}

// Load reads every embedded locale file.
func Load() (*Catalog, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("i18n: read locales: %w", err)
	}

	c := &Catalog{messages: make(map[string]map[string]string)}
	for _, entry := range entries {
		locale := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		raw, err := localeFS.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", entry.Name(), err)
		}

		var tree map[string]interface{}
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", entry.Name(), err)
		}

		flat := make(map[string]string)
		flatten("", tree, flat)
		c.messages[locale] = flat
	}

	if _, ok := c.messages[DefaultLocale]; !ok {
		return nil, fmt.Errorf("i18n: default locale %q missing", DefaultLocale)
	}

	// The matcher falls back to its first tag, so the default goes first.
	c.locales = append(c.locales, DefaultLocale)
	for locale := range c.messages {
		if locale != DefaultLocale {
			c.locales = append(c.locales, locale)
		}
	}
	tags := make([]language.Tag, 0, len(c.locales))
	for _, locale := range c.locales {
		tags = append(tags, language.Make(locale))
	}
	c.matcher = language.NewMatcher(tags)

	return c, nil
}

// MustLoad is Load for package initialisation and tests.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func flatten(prefix string, node map[string]interface{}, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Locales returns the supported locales, default first.
func (c *Catalog) Locales() []string {
	return append([]string(nil), c.locales...)
}

// Match picks the best supported locale for the given preferences.
// Each preference may be a plain tag ("el") or an Accept-Language header value.
// Empty and unparsable preferences are skipped.
func (c *Catalog) Match(preferences ...string) string {
	for _, pref := range preferences {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		tags, _, err := language.ParseAcceptLanguage(pref)
		if err != nil || len(tags) == 0 {
			continue
		}
		tag, _, confidence := c.matcher.Match(tags...)
		if confidence == language.No {
			continue
		}
		base, _ := tag.Base()
		if _, ok := c.messages[base.String()]; ok {
			return base.String()
		}
	}
	return DefaultLocale
}

// T translates key for locale, substituting {placeholder} arguments.
// Unknown locales use the default; unknown keys return the key itself.
func (c *Catalog) T(locale, key string, args map[string]interface{}) string {
	msg, ok := c.messages[locale][key]
	if !ok {
		msg, ok = c.messages[DefaultLocale][key]
	}
	if !ok {
		return key
	}
	for name, val := range args {
		msg = strings.ReplaceAll(msg, "{"+name+"}", fmt.Sprint(val))
	}
	return msg
}
