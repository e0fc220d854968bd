package paths

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func mkdirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.MkdirAll(filepath.Join(root, name), 0755); err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
	}
}

func TestVersionDirs_Velopack(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "current", "app-2020.1.0")

	dirs, err := VersionDirs(root)
	if err != nil {
		t.Fatalf("VersionDirs() error = %v", err)
	}
	if len(dirs) != 1 || dirs[0] != filepath.Join(root, "current") {
		t.Errorf("VersionDirs() = %v, want only current", dirs)
	}
}

func TestVersionDirs_SquirrelNewestFirst(t *testing.T) {
	root := t.TempDir()
	mkdirs(t, root, "app-2020.1030.0", "app-2021.120.0", "app-2020.905.0", "app-custom", "packages")
	if err := os.WriteFile(filepath.Join(root, "app-file.txt"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	dirs, err := VersionDirs(root)
	if err != nil {
		t.Fatalf("VersionDirs() error = %v", err)
	}

	want := []string{
		filepath.Join(root, "app-2021.120.0"),
		filepath.Join(root, "app-2020.1030.0"),
		filepath.Join(root, "app-2020.905.0"),
		filepath.Join(root, "app-custom"),
	}
	if len(dirs) != len(want) {
		t.Fatalf("VersionDirs() = %v, want %v", dirs, want)
	}
	for i := range want {
		if dirs[i] != want[i] {
			t.Errorf("dirs[%d] = %s, want %s", i, dirs[i], want[i])
		}
	}
}

func TestVersionDirs_MissingRoot(t *testing.T) {
	if _, err := VersionDirs(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("VersionDirs() expected error for missing root")
	}
}

func TestSelectVersionDir(t *testing.T) {
	root := t.TempDir()

	if _, err := SelectVersionDir(root, ""); !errors.Is(err, ErrNoVersionDir) {
		t.Errorf("SelectVersionDir() on empty root error = %v, want ErrNoVersionDir", err)
	}

	mkdirs(t, root, "app-2020.1.0", "app-2020.2.0")
	got, err := SelectVersionDir(root, "")
	if err != nil {
		t.Fatalf("SelectVersionDir() error = %v", err)
	}
	if got != filepath.Join(root, "app-2020.2.0") {
		t.Errorf("SelectVersionDir() = %s, want newest", got)
	}

	override := filepath.Join(root, "app-2020.1.0")
	got, err = SelectVersionDir(root, override)
	if err != nil || got != override {
		t.Errorf("SelectVersionDir(override) = %s, %v", got, err)
	}

	if _, err := SelectVersionDir(root, filepath.Join(root, "nope")); err == nil {
		t.Error("SelectVersionDir() expected error for missing override")
	}
}

func TestFindActual(t *testing.T) {
	dir := t.TempDir()
	actual := filepath.Join(dir, "osu.Game.Rulesets.Tau.dll")
	if err := os.WriteFile(actual, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := FindActual(filepath.Join(dir, "OSU.GAME.RULESETS.TAU.DLL"))
	if err != nil {
		t.Fatalf("FindActual() error = %v", err)
	}
	if got != actual {
		t.Errorf("FindActual() = %s, want %s", got, actual)
	}

	missing := filepath.Join(dir, "other.dll")
	if got, _ := FindActual(missing); got != missing {
		t.Errorf("FindActual() for missing file = %s, want input path", got)
	}
}

func TestFileProbe(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Ruleset.dll"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	mkdirs(t, dir, "folder.dll")

	probe := FileProbe(dir)
	if probe == nil {
		t.Fatal("FileProbe() returned nil for existing dir")
	}
	if !probe("ruleset.DLL") {
		t.Error("probe should match case-insensitively")
	}
	if probe("missing.dll") {
		t.Error("probe matched a missing file")
	}
	if probe("folder.dll") {
		t.Error("probe matched a directory")
	}

	if FileProbe(filepath.Join(dir, "missing")) != nil {
		t.Error("FileProbe() should be nil for a missing directory")
	}
	if FileProbe("") != nil {
		t.Error("FileProbe() should be nil for an empty path")
	}
}

func TestListFile(t *testing.T) {
	got := ListFile(filepath.Join("root", "osulazer"))
	want := filepath.Join("root", "osulazer", "osu.Game.Rulesets.List.txt")
	if got != want {
		t.Errorf("ListFile() = %s, want %s", got, want)
	}
}
