package fingerprint

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/velocitycmdb/velocitycmdb/internal/inventory"
	"github.com/velocitycmdb/velocitycmdb/internal/sshclient"
	"github.com/velocitycmdb/velocitycmdb/internal/templatedb"
	"github.com/velocitycmdb/velocitycmdb/internal/vendor"
)

func newCiscoTemplates() *templatedb.Database {
	pattern := regexp.MustCompile(`(?m)Cisco IOS Software.*\nSOFTWARE_VERSION: (?P<software_version>\S+)\nMODEL: (?P<model>\S+)\nSERIAL_NUMBER: (?P<serial>\S+)`)
	return templatedb.NewDatabase([]templatedb.Template{
		{Name: "cisco_ios_show_version", Vendor: vendor.CiscoIOS, Pattern: pattern, Rows: 5},
	})
}

func TestRunIdentifiesDeviceFromSingleProbe(t *testing.T) {
	dialer := sshclient.NewFakeDialer()
	sess := sshclient.NewFakeSession()
	sess.Responses["show version"] = "Cisco IOS Software, C3850\nSOFTWARE_VERSION: 16.9.3\nMODEL: WS-C3850-24\nSERIAL_NUMBER: FDO123456\n"
	dialer.Sessions["10.0.0.1:22"] = sess

	inv := &inventory.File{Folders: []inventory.Folder{
		{FolderName: "site1", Sessions: []inventory.Session{
			{Name: "r1", IP: "10.0.0.1"},
		}},
	}}

	fp := &Fingerprinter{Dialer: dialer, Templates: newCiscoTemplates()}
	report, err := fp.Run(context.Background(), inv, sshclient.Credentials{Username: "admin", Password: "x"}, Options{MinScore: 1})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Identified != 1 || report.Failed != 0 {
		t.Fatalf("Run() report = %+v", report)
	}

	updated := inv.Folders[0].Sessions[0]
	if !updated.Fingerprinted {
		t.Error("session not marked Fingerprinted")
	}
	if updated.DeviceType != "cisco_ios" {
		t.Errorf("DeviceType = %q, want cisco_ios", updated.DeviceType)
	}
	if updated.SoftwareVersion != "16.9.3" {
		t.Errorf("SoftwareVersion = %q, want 16.9.3", updated.SoftwareVersion)
	}
}

func TestRunSkipsAlreadyFingerprintedSessions(t *testing.T) {
	dialer := sshclient.NewFakeDialer()
	inv := &inventory.File{Folders: []inventory.Folder{
		{FolderName: "site1", Sessions: []inventory.Session{
			{Name: "r1", IP: "10.0.0.1", Fingerprinted: true},
		}},
	}}

	fp := &Fingerprinter{Dialer: dialer, Templates: templatedb.NewDatabase(nil)}
	report, err := fp.Run(context.Background(), inv, sshclient.Credentials{Username: "admin", Password: "x"}, Options{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Identified != 0 || report.Failed != 0 {
		t.Fatalf("Run() report = %+v, want no work done", report)
	}
	if len(dialer.Dialed) != 0 {
		t.Errorf("Dialed = %v, want no dials for an already-fingerprinted session", dialer.Dialed)
	}
}

func TestRunRecordsTransportFailureWithoutAbortingBatch(t *testing.T) {
	dialer := sshclient.NewFakeDialer()
	sess := sshclient.NewFakeSession()
	sess.Responses["show version"] = "Cisco IOS Software, C3850\nSOFTWARE_VERSION: 16.9.3\nMODEL: WS-C3850-24\nSERIAL_NUMBER: FDO123456\n"
	dialer.Sessions["10.0.0.2:22"] = sess
	// 10.0.0.1 has no scripted session -> dial error

	inv := &inventory.File{Folders: []inventory.Folder{
		{FolderName: "site1", Sessions: []inventory.Session{
			{Name: "unreachable", IP: "10.0.0.1"},
			{Name: "r2", IP: "10.0.0.2"},
		}},
	}}

	fp := &Fingerprinter{Dialer: dialer, Templates: newCiscoTemplates()}
	report, err := fp.Run(context.Background(), inv, sshclient.Credentials{Username: "admin", Password: "x"}, Options{MinScore: 1})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Identified != 1 || report.Failed != 1 {
		t.Fatalf("Run() report = %+v, want 1 identified, 1 failed", report)
	}
	if len(report.FailedDevices) != 1 || report.FailedDevices[0].Name != "unreachable" {
		t.Errorf("FailedDevices = %+v", report.FailedDevices)
	}
}

func TestFollowUpsEnqueuedForHPProCurveImageStamp(t *testing.T) {
	cmds := FollowUps(vendor.HPProCurve, "ProCurve JL. image stamp present, no serial here")
	if len(cmds) != 1 || cmds[0] != "show system information" {
		t.Errorf("FollowUps() = %v", cmds)
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.MaxWorkers != 8 || o.Timeout != 15*time.Second || o.MinScore != 20 {
		t.Errorf("withDefaults() = %+v", o)
	}
}
