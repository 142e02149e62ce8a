package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  language.Tag
	}{
		{"bcp tag", "ja", language.Japanese},
		{"regional tag normalizes", "zh-CN", language.SimplifiedChinese},
		{"script tag", "zh-Hant", language.TraditionalChinese},
		{"english name", "Japanese", language.Japanese},
		{"name case folded", "french", language.French},
		{"fuzzy partial", "germ", language.German},
		{"fuzzy typo tolerant", "portugese", language.Portuguese},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLanguage(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveLanguageRejectsGarbage(t *testing.T) {
	_, err := ResolveLanguage("")
	assert.Error(t, err)

	_, err = ResolveLanguage("qqqqxxxx")
	assert.Error(t, err)
}

func TestSupportedLanguageNames(t *testing.T) {
	names := SupportedLanguageNames()
	require.NotEmpty(t, names)
	assert.Contains(t, names[0], "(")
}

func TestLanguageName(t *testing.T) {
	assert.Equal(t, "Japanese", LanguageName(language.Japanese))
}
