package inventory

import (
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	f := &File{}
	f.AddSession("hq", Session{Name: "sw1", IP: "10.0.0.1", Port: 22, CredsID: 1})
	f.AddSession("hq", Session{Name: "sw2", IP: "10.0.0.2", Port: 22, CredsID: 1})

	path := filepath.Join(t.TempDir(), "sessions.yaml")
	if err := Save(path, f); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Folders) != 1 || len(got.Folders[0].Sessions) != 2 {
		t.Fatalf("Load() = %+v", got)
	}
	if got.Folders[0].Sessions[0].Name != "sw1" {
		t.Errorf("session 0 name = %q", got.Folders[0].Sessions[0].Name)
	}
}

func TestAddSessionReusesExistingFolder(t *testing.T) {
	f := &File{}
	f.AddSession("hq", Session{Name: "sw1"})
	f.AddSession("hq", Session{Name: "sw2"})
	if len(f.Folders) != 1 {
		t.Fatalf("Folders = %d, want 1", len(f.Folders))
	}
}

func TestUpdateSessionSetsFingerprintTimestamp(t *testing.T) {
	f := &File{}
	f.AddSession("hq", Session{Name: "sw1"})

	ok := f.UpdateSession("sw1", Session{Name: "sw1", DeviceType: "cisco_ios", Fingerprinted: true})
	if !ok {
		t.Fatal("UpdateSession() = false, want true")
	}
	updated := f.Folders[0].Sessions[0]
	if updated.FingerprintTimestamp == "" {
		t.Error("FingerprintTimestamp not set")
	}
	if updated.DeviceType != "cisco_ios" {
		t.Errorf("DeviceType = %q", updated.DeviceType)
	}
}

func TestUpdateSessionMissingReturnsFalse(t *testing.T) {
	f := &File{}
	if f.UpdateSession("nope", Session{}) {
		t.Error("UpdateSession() = true for missing session")
	}
}

func TestDevicesFlattensAllFolders(t *testing.T) {
	f := &File{}
	f.AddSession("hq", Session{Name: "sw1"})
	f.AddSession("branch", Session{Name: "sw2"})

	devices := f.Devices()
	if len(devices) != 2 {
		t.Fatalf("Devices() = %d, want 2", len(devices))
	}
}
