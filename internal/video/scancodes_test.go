package video

import "testing"

func TestTranslateKnownKey(t *testing.T) {
	scan, biosKey, ok := translate("A")
	if !ok {
		t.Fatal("expected \"A\" to translate")
	}
	if scan != 0x1E {
		t.Errorf("scan = %#02x, want 0x1e", scan)
	}
	if biosKey != 0x1E61 {
		t.Errorf("biosKey = %#04x, want 0x1e61", biosKey)
	}
}

func TestTranslateUnknownKeyNotOK(t *testing.T) {
	if _, _, ok := translate("F13"); ok {
		t.Fatal("expected an unmapped key name to report ok=false")
	}
}
