package i18n

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wansing/editorial/core"
	"golang.org/x/text/language"
)

func TestTranslate(t *testing.T) {
	c, err := New(map[string]map[string]string{
		"de": {
			core.KeyCheckout: "Auschecken",
			core.TransitionLabelKey(1, 11, "Approve"): "Freigeben",
			"discount": "100% erledigt",
		},
	})
	require.NoError(t, err)

	var _ core.Translator = c

	tests := []struct {
		key, def, locale, want string
	}{
		{core.KeyCheckout, "Check Out", "de", "Auschecken"},
		{core.KeyCheckout, "Check Out", "de-AT", "Auschecken"},
		{core.KeyCheckout, "Check Out", "fr-CH, de;q=0.8", "Auschecken"},
		{core.KeyCheckout, "Check Out", "en", "Check Out"},
		{core.KeyCheckout, "Check Out", "", "Check Out"},
		{core.KeyCheckin, "Check In", "de", "Check In"},
		{core.TransitionLabelKey(1, 11, "Approve"), "Approve", "de", "Freigeben"},
		{core.TransitionLabelKey(2, 11, "Approve"), "Approve", "de", "Approve"},
		{"discount", "100% done", "de", "100% erledigt"},
		{"discount", "100% done", "en", "100% done"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Translate(tt.key, tt.def, tt.locale), tt.key+" "+tt.locale)
	}
}

func TestNewInvalidLanguage(t *testing.T) {
	_, err := New(map[string]map[string]string{"not a tag!": {"a": "b"}})
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	var dir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "labels.de.ini"), []byte("action.checkin = Einchecken\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "labels.nl.ini"), []byte("action.checkin = Inchecken\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.ini"), []byte("action.checkin = ignored\n"), 0644))

	c, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "Einchecken", c.Translate(core.KeyCheckin, "Check In", "de"))
	assert.Equal(t, "Inchecken", c.Translate(core.KeyCheckin, "Check In", "nl"))
	assert.Equal(t, "Check In", c.Translate(core.KeyCheckin, "Check In", "en"))
	assert.Contains(t, c.Languages(), language.German)
	assert.Contains(t, c.Languages(), language.Dutch)
}

func TestLoadMissingDirectory(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Equal(t, "Check In", c.Translate(core.KeyCheckin, "Check In", "de"))
}
