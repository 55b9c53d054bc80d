package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromDirResolvesKeys(t *testing.T) {
	manager, err := LoadFromDir(".", "en")
	require.NoError(t, err)

	tr := manager.Translator("en")
	assert.Equal(t, "en", tr.Lang())
	assert.Equal(t, "Usage: /daily", tr.T("usage.daily"))
	assert.Equal(t, "Account overview", tr.T("profile.header"))
}

func TestTranslatorFallsBackToKey(t *testing.T) {
	manager, err := LoadFromDir(".", "en")
	require.NoError(t, err)

	tr := manager.Translator("en")
	assert.Equal(t, "nope.missing", tr.T("nope.missing"))
	assert.Equal(t, "", tr.T("  "))
}

func TestUnknownLanguageUsesDefault(t *testing.T) {
	manager, err := LoadFromDir(".", "en")
	require.NoError(t, err)

	tr := manager.Translator("xx")
	assert.Equal(t, "en", tr.Lang())
}

func TestMissingDefaultLanguageFails(t *testing.T) {
	_, err := LoadFromDir(".", "fr")
	require.Error(t, err)
}
