package buildcache

import "testing"

func TestKeyIsStableAndDistinguishesLinkMode(t *testing.T) {
	a := Key("1 + 1", false)
	b := Key("1 + 1", false)
	c := Key("1 + 1", true)

	if a != b {
		t.Errorf("Key should be deterministic for identical inputs: %q != %q", a, b)
	}
	if a == c {
		t.Errorf("Key should differ across link modes, got same key %q", a)
	}
}

func TestKeyDistinguishesSource(t *testing.T) {
	if Key("1 + 1", false) == Key("2 + 2", false) {
		t.Error("different source should hash to different keys")
	}
}

func TestStoreThenLookup(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	defer c.Close()

	key := Key("1 + 1", false)
	if _, found, err := c.Lookup(key); err != nil || found {
		t.Fatalf("expected a miss before storing, found=%v err=%v", found, err)
	}

	program := []byte{0x7f, 'E', 'L', 'F'}
	if _, err := c.Store(key, program); err != nil {
		t.Fatalf("storing: %v", err)
	}

	got, found, err := c.Lookup(key)
	if err != nil || !found {
		t.Fatalf("expected a hit after storing, found=%v err=%v", found, err)
	}
	if string(got) != string(program) {
		t.Errorf("Lookup returned %v, want %v", got, program)
	}
}
