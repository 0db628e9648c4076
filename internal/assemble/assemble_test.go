package assemble

import (
	"strings"
	"testing"
)

func TestDropStartSymbolRemovesStartSection(t *testing.T) {
	code := "before\n# BEGIN START\nmiddle\n# END START\nafter\n"
	got, err := dropStartSymbol(code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(got, "middle") {
		t.Errorf("expected the bracketed section to be removed, got:\n%s", got)
	}
	if !strings.Contains(got, "before") || !strings.Contains(got, "after") {
		t.Errorf("expected surrounding text preserved, got:\n%s", got)
	}
}

func TestDropStartSymbolMissingBeginMarker(t *testing.T) {
	if _, err := dropStartSymbol("no markers here"); err == nil {
		t.Fatal("expected an error for missing BEGIN START marker")
	}
}

func TestDropStartSymbolMissingEndMarker(t *testing.T) {
	if _, err := dropStartSymbol("# BEGIN START\nunterminated"); err == nil {
		t.Fatal("expected an error for missing END START marker")
	}
}

func TestStdlibAsmHasMatchedMarkers(t *testing.T) {
	if _, err := dropStartSymbol(stdlibAsmCode); err != nil {
		t.Fatalf("stdlib assembly markers must be well-formed: %v", err)
	}
}
