package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
)

var ErrInvalidLocalizedText = errors.New("localized text must be a string or an object of strings")

// LocalizedText is either a single plain text or a set of translations keyed
// by language code.
type LocalizedText struct {
	plain        string
	translations map[string]string
}

func Plain(text string) LocalizedText {
	return LocalizedText{plain: text}
}

func Localized(translations map[string]string) LocalizedText {
	cp := make(map[string]string, len(translations))
	for lang, text := range translations {
		cp[lang] = text
	}
	return LocalizedText{translations: cp}
}

func (t LocalizedText) IsLocalized() bool {
	return t.translations != nil
}

func (t LocalizedText) IsZero() bool {
	return t.plain == "" && len(t.translations) == 0
}

// Translations returns a copy of the translations; nil for plain text.
func (t LocalizedText) Translations() map[string]string {
	if t.translations == nil {
		return nil
	}
	cp := make(map[string]string, len(t.translations))
	for lang, text := range t.translations {
		cp[lang] = text
	}
	return cp
}

// Resolve returns the text for lang, then for fallback, then the first
// translation by language code. Plain text is returned as is.
func (t LocalizedText) Resolve(lang, fallback string) string {
	if !t.IsLocalized() {
		return t.plain
	}
	if text, ok := t.translations[lang]; ok {
		return text
	}
	if text, ok := t.translations[fallback]; ok {
		return text
	}

	langs := make([]string, 0, len(t.translations))
	for l := range t.translations {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	if len(langs) == 0 {
		return ""
	}
	return t.translations[langs[0]]
}

func (t LocalizedText) MarshalJSON() ([]byte, error) {
	if t.IsLocalized() {
		return json.Marshal(t.translations)
	}
	return json.Marshal(t.plain)
}

func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = LocalizedText{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Plain(s)
		return nil
	case '{':
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return ErrInvalidLocalizedText
		}
		*t = LocalizedText{translations: m}
		return nil
	}

	return ErrInvalidLocalizedText
}
