package atomicdir

import (
	"path/filepath"
	"testing"
)

func TestDirLockSharedRefcounting(t *testing.T) {
	sentinel := filepath.Join(t.TempDir(), "d.lock")

	l1, err := OpenShared(sentinel)
	if err != nil {
		t.Fatalf("first OpenShared: %v", err)
	}
	l2, err := OpenShared(sentinel)
	if err != nil {
		t.Fatalf("second OpenShared: %v", err)
	}
	if l1.Mode() != Shared || l2.Mode() != Shared {
		t.Fatalf("expected both locks Shared, got %v and %v", l1.Mode(), l2.Mode())
	}
	if err := l1.Close(); err != nil {
		t.Fatalf("close first: %v", err)
	}
	if err := l2.Close(); err != nil {
		t.Fatalf("close second: %v", err)
	}
}

func TestDirLockExclusiveThenSharedAfterClose(t *testing.T) {
	sentinel := filepath.Join(t.TempDir(), "d.lock")

	l1, err := OpenExclusive(sentinel)
	if err != nil {
		t.Fatalf("OpenExclusive: %v", err)
	}
	if err := l1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	l2, err := OpenShared(sentinel)
	if err != nil {
		t.Fatalf("OpenShared after close: %v", err)
	}
	if l2.Mode() != Shared {
		t.Errorf("Mode() = %v, want Shared", l2.Mode())
	}
	l2.Close()
}

func TestDirLockUpgradeDowngrade(t *testing.T) {
	sentinel := filepath.Join(t.TempDir(), "d.lock")

	l, err := OpenShared(sentinel)
	if err != nil {
		t.Fatalf("OpenShared: %v", err)
	}
	defer l.Close()

	if err := l.Upgrade(); err != nil {
		t.Fatalf("Upgrade: %v", err)
	}
	if l.Mode() != Exclusive {
		t.Errorf("Mode() after Upgrade = %v, want Exclusive", l.Mode())
	}

	if err := l.Downgrade(); err != nil {
		t.Fatalf("Downgrade: %v", err)
	}
	if l.Mode() != Shared {
		t.Errorf("Mode() after Downgrade = %v, want Shared", l.Mode())
	}
}
