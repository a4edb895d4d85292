// Package i18n provides internationalization support for error messages.
package i18n

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every lookup falls back to.
const BaseLocale = "en-US"

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	messages map[Code]string
}

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

//go:embed locales/*/errors.yaml
var embeddedLocales embed.FS

var (
	catalogsMu sync.RWMutex
	// catalogs holds embedded and registered catalogs by locale.
	catalogs = map[string]*Catalog{}
	matcher  language.Matcher
	tags     []string
)

func init() {
	loaded, err := LoadFromFS(embeddedLocales)
	if err != nil {
		panic(err)
	}
	for _, cat := range loaded {
		catalogs[cat.locale] = cat
	}
	rebuildMatcherLocked()
}

// LoadFromFS reads every locales/<locale>/errors.yaml file in fsys and
// registers its strings with x/text/message.
func LoadFromFS(fsys fs.FS) ([]*Catalog, error) {
	paths, err := fs.Glob(fsys, "locales/*/errors.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	out := make([]*Catalog, 0, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		locale := strings.TrimSpace(file.Locale)
		if dir := path.Base(path.Dir(p)); locale != dir {
			return nil, fmt.Errorf("catalog %s: locale %q must match path locale %q", p, locale, dir)
		}
		if len(file.Messages) == 0 {
			return nil, fmt.Errorf("catalog %s: messages are required", p)
		}
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: parse locale: %w", p, err)
		}
		for key, value := range file.Messages {
			if err := message.SetString(tag, key, value); err != nil {
				return nil, fmt.Errorf("catalog %s: register %s: %w", p, key, err)
			}
		}
		out = append(out, NewCatalog(locale, file.Messages))
	}
	return out, nil
}

// GetCatalog returns the catalog that best matches locale.
// Falls back to en-US when nothing matches.
func GetCatalog(locale string) *Catalog {
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = BaseLocale
	}
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()

	if c, ok := catalogs[requested]; ok {
		return c
	}
	if tag, err := language.Parse(requested); err == nil && matcher != nil {
		_, index, confidence := matcher.Match(tag)
		if confidence != language.No {
			return catalogs[tags[index]]
		}
	}
	return catalogs[BaseLocale]
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found.
// Templates are always executed even with nil/empty metadata to ensure
// consistent output (template variables without metadata render as empty).
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Parse(tmpl)
	if err != nil {
		return tmpl
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

// RegisterCatalog registers a new catalog for the given locale.
// Intended for tests and init-time overrides.
func RegisterCatalog(locale string, cat *Catalog) {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	catalogs[locale] = cat
	rebuildMatcherLocked()
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{
		locale:   locale,
		messages: cloned,
	}
}

// rebuildMatcherLocked keeps the base locale first so it wins ties.
func rebuildMatcherLocked() {
	tags = tags[:0]
	supported := make([]language.Tag, 0, len(catalogs))
	if _, ok := catalogs[BaseLocale]; ok {
		tags = append(tags, BaseLocale)
		supported = append(supported, language.Make(BaseLocale))
	}
	names := make([]string, 0, len(catalogs))
	for locale := range catalogs {
		if locale != BaseLocale {
			names = append(names, locale)
		}
	}
	sort.Strings(names)
	for _, locale := range names {
		tag, err := language.Parse(locale)
		if err != nil {
			continue
		}
		tags = append(tags, locale)
		supported = append(supported, tag)
	}
	matcher = language.NewMatcher(supported)
}
