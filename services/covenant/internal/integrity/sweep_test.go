package integrity

import (
	"os"
	"path/filepath"
	"testing"

	"covenant/pkg/keyregistry"
	"covenant/pkg/store"
)

func newLayout(t *testing.T) store.Layout {
	t.Helper()
	root := t.TempDir()
	for _, sub := range []string{"contracts", "keys", "users"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
	}
	return store.Layout{Root: root}
}

func TestRunOnCleanRegistryDoesNotPanic(t *testing.T) {
	keys := keyregistry.New(newLayout(t))
	s := &Sweep{Keys: keys}
	s.run()
}

func TestRunLeavesBrokenBindingsUnrepaired(t *testing.T) {
	layout := newLayout(t)
	keys := keyregistry.New(layout)
	kp, err := keys.Mint("contract-1")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if err := os.Remove(layout.KeyFile(kp.PublicKeyHex)); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	s := &Sweep{Keys: keys}
	s.run()

	broken := keys.Sweep()
	if len(broken) != 1 || broken[0] != "contract-1" {
		t.Fatalf("expected contract-1 to still be reported broken after run(), got %v", broken)
	}
}
