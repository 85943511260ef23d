package discovery

import (
	"os"
	"testing"
)

func writeSnipeList(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write snipe list: %v", err)
	}
}

func TestSnipeListLoad(t *testing.T) {
	path := t.TempDir() + "/list.txt"
	writeSnipeList(t, path, "# comment\nMintA\n\n  MintB  \n")

	list, err := NewSnipeList(path, nil)
	if err != nil {
		t.Fatalf("NewSnipeList: %v", err)
	}

	if list.Len() != 2 {
		t.Errorf("Len() = %d, want 2", list.Len())
	}
	if !list.Contains("MintA") {
		t.Error("expected MintA to be listed")
	}
	if !list.Contains("MintB") {
		t.Error("expected MintB to be listed (whitespace trimmed)")
	}
	if list.Contains("# comment") {
		t.Error("comment line should not be listed")
	}
}

func TestSnipeListReload(t *testing.T) {
	path := t.TempDir() + "/list.txt"
	writeSnipeList(t, path, "MintA\n")

	list, err := NewSnipeList(path, nil)
	if err != nil {
		t.Fatalf("NewSnipeList: %v", err)
	}
	if list.Contains("MintB") {
		t.Fatal("MintB should not be listed yet")
	}

	writeSnipeList(t, path, "MintA\nMintB\n")
	if err := list.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if !list.Contains("MintB") {
		t.Error("expected MintB after reload")
	}
}

func TestSnipeListMissingFile(t *testing.T) {
	if _, err := NewSnipeList(t.TempDir()+"/absent.txt", nil); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSnipeListReloadFailureKeepsSet(t *testing.T) {
	path := t.TempDir() + "/list.txt"
	writeSnipeList(t, path, "MintA\n")

	list, err := NewSnipeList(path, nil)
	if err != nil {
		t.Fatalf("NewSnipeList: %v", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := list.Reload(); err == nil {
		t.Fatal("expected reload error after file removal")
	}

	if !list.Contains("MintA") {
		t.Error("previous set should survive a failed reload")
	}
}
