package i18n

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("EN-gb") != "en" {
		t.Fatalf("expected en for EN-gb")
	}
	if DetectLanguage("fr-FR,fr;q=0.8") != "fr" {
		t.Fatalf("expected fr")
	}
	if DetectLanguage("de-DE") != "fr" {
		t.Fatalf("expected fr fallback for unsupported language")
	}
	if DetectLanguage("") != "fr" {
		t.Fatalf("expected default fr")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("fr", "required") != "Requis" {
		t.Fatalf("expected Requis")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// unknown language -> fallback to fr translation if exists
	if T("es", "required") != "Requis" {
		t.Fatalf("expected fr fallback for es lang")
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	for code := range catalog["fr"] {
		if _, ok := catalog["en"][code]; !ok {
			t.Errorf("missing en translation for %q", code)
		}
	}
	for code := range catalog["en"] {
		if _, ok := catalog["fr"][code]; !ok {
			t.Errorf("missing fr translation for %q", code)
		}
	}
}

func TestLangContext(t *testing.T) {
	if LangFromContext(context.Background()) != Default {
		t.Fatalf("expected default language")
	}
	ctx := WithLang(context.Background(), "en")
	if LangFromContext(ctx) != "en" {
		t.Fatalf("expected en from context")
	}
}
