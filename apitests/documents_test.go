package apitests

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/apitest/endpoints"
	"github.com/gaborage/apitest/fixtures"
	"github.com/gaborage/apitest/harness"
)

// getDocument fetches a section and returns its title and sections.
func getDocument(t *testing.T, h *harness.Harness, section string) (string, map[string]any) {
	t.Helper()
	h.RequireToken()

	resp := h.Get(h.Endpoints.DocumentsBySection(), h.Auth(), map[string]string{"section": section})
	require.Equal(t, http.StatusOK, resp.StatusCode, resp.Text())

	obj := harness.Object(t, resp)
	require.Contains(t, obj, "Title")
	require.Contains(t, obj, "Sections")
	title, ok := obj["Title"].(string)
	require.True(t, ok, "Title should be a string")
	sections, ok := obj["Sections"].(map[string]any)
	require.True(t, ok, "Sections should be an object, got %T", obj["Sections"])
	return title, sections
}

func anyContains(items []string, substr string) bool {
	for _, item := range items {
		if strings.Contains(item, substr) {
			return true
		}
	}
	return false
}

func TestEULAContent(t *testing.T) {
	h := harness.New(t)
	title, sections := getDocument(t, h, endpoints.SectionEULA)

	for _, fragment := range fixtures.EULATitleFragments {
		assert.Contains(t, title, fragment)
	}
	for _, name := range fixtures.EULASections() {
		require.Contains(t, sections, name)
	}

	intro := harness.Strings(t, sections["Introduction"], "Introduction")
	require.NotEmpty(t, intro)
	assert.Contains(t, intro[0], "Terms and Conditions")
	assert.Contains(t, intro[0], "Jump IQ, Inc.")

	definitions := harness.Strings(t, sections["Definitions"], "Definitions")
	for _, term := range fixtures.EULADefinedTerms {
		assert.True(t, anyContains(definitions, term), "missing definition for %s", term)
	}

	access := harness.Strings(t, sections["Access and Use"], "Access and Use")
	lowered := make([]string, len(access))
	for i, item := range access {
		lowered[i] = strings.ToLower(item)
	}
	assert.True(t, anyContains(lowered, "non-exclusive"), "missing license terms")
	assert.True(t, anyContains(lowered, "restrictions"), "missing use restrictions")

	disclaimers := harness.Strings(t, sections["Disclaimers"], "Disclaimers")
	require.NotEmpty(t, disclaimers)
	assert.Contains(t, disclaimers[0], "AS IS")
	assert.Contains(t, strings.ToLower(disclaimers[0]), "warranties")

	liability := harness.Strings(t, sections["Limitations of Liability"], "Limitations of Liability")
	require.NotEmpty(t, liability)
	assert.Contains(t, liability[0], "IN NO EVENT")
	assert.Contains(t, liability[0], "USD 100")
}

func TestPrivacyPolicyContent(t *testing.T) {
	h := harness.New(t)
	title, sections := getDocument(t, h, endpoints.SectionPrivacy)

	assert.Equal(t, fixtures.PrivacyTitle, title)
	for name, expected := range fixtures.PrivacySections() {
		require.Contains(t, sections, name)
		assert.Equal(t, expected, harness.Strings(t, sections[name], name), name)
	}
}

func TestTermsAndConditionsContent(t *testing.T) {
	h := harness.New(t)
	title, sections := getDocument(t, h, endpoints.SectionTerms)

	assert.Equal(t, fixtures.TermsTitle, title)
	require.Len(t, sections, len(fixtures.TermsParagraphs))
	for name, count := range fixtures.TermsParagraphs {
		require.Contains(t, sections, name)
		paragraphs := harness.Strings(t, sections[name], name)
		assert.Len(t, paragraphs, count, name)
		for _, p := range paragraphs {
			assert.NotEmpty(t, p, "empty paragraph in %s", name)
		}
	}
}

func TestHelpContent(t *testing.T) {
	h := harness.New(t)
	title, sections := getDocument(t, h, endpoints.SectionHelp)

	assert.Equal(t, fixtures.HelpTitle, title)
	for _, name := range fixtures.HelpSections {
		require.Contains(t, sections, name)
		paragraphs := harness.Strings(t, sections[name], name)
		require.Len(t, paragraphs, 1, name)
		assert.True(t, strings.HasPrefix(paragraphs[0], fixtures.HelpPrefix), "%s does not start with the expected text", name)
		for _, phrase := range fixtures.HelpPhrases {
			assert.Contains(t, paragraphs[0], phrase, name)
		}
	}
}

func TestDocumentsInvalidSection(t *testing.T) {
	h := harness.New(t)
	_, sections := getDocument(t, h, "invalid_section")
	assert.Empty(t, sections)
}

// Without credentials the live service fails with 500 rather than 401.
func TestDocumentsMissingAuth(t *testing.T) {
	h := harness.New(t)

	resp := h.Get(h.Endpoints.DocumentsBySection(), nil, map[string]string{"section": endpoints.SectionEULA})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestDocumentsInvalidAuth(t *testing.T) {
	h := harness.New(t)

	headers := map[string]string{"Authorization": "invalid_token"}
	resp := h.Get(h.Endpoints.DocumentsBySection(), headers, map[string]string{"section": endpoints.SectionEULA})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
