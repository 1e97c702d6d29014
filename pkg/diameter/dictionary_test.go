package diameter_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/jihwankim/diameter-load/pkg/diameter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDictionary_ResolvesBaseNames(t *testing.T) {
	dict := diameter.DefaultDictionary()

	code, ok := dict.CommandCode("Credit-Control")
	require.True(t, ok)
	assert.Equal(t, uint32(272), code)

	app, ok := dict.ApplicationID("Credit-Control")
	require.True(t, ok)
	assert.Equal(t, uint32(4), app)

	def, ok := dict.AVP("Session-Id")
	require.True(t, ok)
	assert.Equal(t, diameter.UTF8String, def.Type)
	assert.True(t, def.Mandatory)

	_, ok = dict.AVP("Not-A-Real-AVP")
	assert.False(t, ok)
}

const testDictXML = `<dictionary>
  <command name="Custom-Command" code="9999"/>
  <application name="Custom-App" id="88888"/>
  <avp name="Custom-AVP" code="7000" type="UTF8String" mandatory="true"/>
</dictionary>`

func TestLoadDictionaries_LocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.xml")
	require.NoError(t, os.WriteFile(path, []byte(testDictXML), 0644))

	dict, err := diameter.LoadDictionaries([]string{path})
	require.NoError(t, err)

	code, ok := dict.CommandCode("Custom-Command")
	require.True(t, ok)
	assert.Equal(t, uint32(9999), code)

	// Base dictionary entries still resolve after merge.
	_, ok = dict.CommandCode("Credit-Control")
	assert.True(t, ok)
}

func TestLoadDictionaries_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(testDictXML))
	}))
	defer srv.Close()

	dict, err := diameter.LoadDictionaries([]string{srv.URL})
	require.NoError(t, err)

	def, ok := dict.AVP("Custom-AVP")
	require.True(t, ok)
	assert.Equal(t, uint32(7000), def.Code)
}

func TestLoadDictionaries_MissingFile(t *testing.T) {
	_, err := diameter.LoadDictionaries([]string{"/no/such/dictionary.xml"})
	require.Error(t, err)
	var derr *diameter.DictionaryError
	require.ErrorAs(t, err, &derr)
}
