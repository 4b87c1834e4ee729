// Package inventory reads and writes discovery/sessions.yaml, the
// interface file between discovery, fingerprint, and collection (§6).
package inventory

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Session is one device entry within a folder, matching §6's documented
// field set exactly.
type Session struct {
	Name                 string `yaml:"name"`
	IP                   string `yaml:"ip"`
	Port                 int    `yaml:"port"`
	DeviceType           string `yaml:"device_type"`
	Vendor               string `yaml:"vendor"`
	Platform             string `yaml:"platform"`
	Model                string `yaml:"model"`
	SoftwareVersion      string `yaml:"software_version"`
	Fingerprinted        bool   `yaml:"fingerprinted"`
	FingerprintTimestamp string `yaml:"fingerprint_timestamp,omitempty"`
	CredsID              int    `yaml:"credsid"`
}

// Folder groups sessions by site, matching the discovery crawler's
// site_name option.
type Folder struct {
	FolderName string    `yaml:"folder_name"`
	Sessions   []Session `yaml:"sessions"`
}

// File is the top-level sessions.yaml document.
type File struct {
	Folders []Folder `yaml:"folders"`
}

// Load reads and parses an inventory file from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inventory: read %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("inventory: parse %s: %w", path, err)
	}
	return &f, nil
}

// Save marshals f and writes it to path, creating or truncating the file.
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("inventory: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("inventory: write %s: %w", path, err)
	}
	return nil
}

// Devices flattens every session across every folder, pairing each with
// its folder name for callers that need the site grouping alongside the
// session (e.g. collection target selection).
func (f *File) Devices() []struct {
	Folder  string
	Session Session
} {
	var out []struct {
		Folder  string
		Session Session
	}
	for _, folder := range f.Folders {
		for _, s := range folder.Sessions {
			out = append(out, struct {
				Folder  string
				Session Session
			}{Folder: folder.FolderName, Session: s})
		}
	}
	return out
}

// UpdateSession finds the session named name (first match across folders)
// and replaces it with updated, setting FingerprintTimestamp to now if the
// caller marked it Fingerprinted and left the timestamp blank.
func (f *File) UpdateSession(name string, updated Session) bool {
	if updated.Fingerprinted && updated.FingerprintTimestamp == "" {
		updated.FingerprintTimestamp = time.Now().UTC().Format(time.RFC3339)
	}
	for fi := range f.Folders {
		for si, s := range f.Folders[fi].Sessions {
			if s.Name == name {
				f.Folders[fi].Sessions[si] = updated
				return true
			}
		}
	}
	return false
}

// AddSession appends a session to the named folder, creating the folder if
// it doesn't exist yet.
func (f *File) AddSession(folderName string, s Session) {
	for fi := range f.Folders {
		if f.Folders[fi].FolderName == folderName {
			f.Folders[fi].Sessions = append(f.Folders[fi].Sessions, s)
			return
		}
	}
	f.Folders = append(f.Folders, Folder{FolderName: folderName, Sessions: []Session{s}})
}
