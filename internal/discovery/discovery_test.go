package discovery

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/velocitycmdb/velocitycmdb/internal/sshclient"
	"github.com/velocitycmdb/velocitycmdb/internal/templatedb"
	"github.com/velocitycmdb/velocitycmdb/internal/vendor"
)

func neighborTemplates() *templatedb.Database {
	lldp := regexp.MustCompile(`(?m)SysName: (?P<neighbor_name>\S+)\nMgmtIP: (?P<neighbor_ip>\S+)\nLocalPort: (?P<local_interface>\S+)\nPortID: (?P<remote_interface>\S+)`)
	cdp := regexp.MustCompile(`(?m)Device ID: (?P<neighbor_name>\S+)\nIP address: (?P<neighbor_ip>\S+)\nInterface: (?P<local_interface>\S+),.*Port ID.*: (?P<remote_interface>\S+)`)
	versionSig := regexp.MustCompile(`Cisco IOS Software`)
	return templatedb.NewDatabase([]templatedb.Template{
		{Name: "cisco_lldp", Vendor: vendor.CiscoIOS, Pattern: lldp, Rows: 5},
		{Name: "cisco_cdp", Vendor: vendor.CiscoIOS, Pattern: cdp, Rows: 5},
		{Name: "version_sig", Vendor: vendor.Unknown, Pattern: versionSig, Rows: 0},
	})
}

func versionOutput() string {
	return "Cisco IOS Software, C3850\n"
}

func TestRunDiscoversSingleHopNeighbor(t *testing.T) {
	dialer := sshclient.NewFakeDialer()

	seedSess := sshclient.NewFakeSession()
	seedSess.Responses["show version"] = versionOutput()
	seedSess.Responses["show lldp neighbors detail"] = "SysName: r2\nMgmtIP: 10.0.0.2\nLocalPort: Gi0/1\nPortID: Gi0/2\n"
	dialer.Sessions["10.0.0.1:22"] = seedSess

	leafSess := sshclient.NewFakeSession()
	leafSess.Responses["show version"] = versionOutput()
	leafSess.Responses["show lldp neighbors detail"] = ""
	leafSess.Responses["show cdp neighbors detail"] = ""
	dialer.Sessions["10.0.0.2:22"] = leafSess

	dir := t.TempDir()
	c := &Crawler{
		Dialer:        dialer,
		Templates:     neighborTemplates(),
		InventoryPath: filepath.Join(dir, "inventory.yaml"),
		TopologyPath:  filepath.Join(dir, "network.json"),
	}

	result, err := c.Run(context.Background(), Peer{Hostname: "r1", IP: "10.0.0.1"}, sshclient.Credentials{Username: "admin", Password: "x"}, Options{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.DeviceCount != 2 {
		t.Fatalf("DeviceCount = %d, want 2", result.DeviceCount)
	}
	if len(result.FailedPeers) != 0 {
		t.Errorf("FailedPeers = %+v, want none", result.FailedPeers)
	}

	topo, err := LoadTopology(c.TopologyPath)
	if err != nil {
		t.Fatalf("LoadTopology() error = %v", err)
	}
	if len(topo.Edges) != 1 || topo.Edges[0].RemoteHostname != "r2" {
		t.Errorf("Edges = %+v", topo.Edges)
	}
}

func TestRunNeighborWithoutIPIsEdgeOnlyNotEnqueued(t *testing.T) {
	dialer := sshclient.NewFakeDialer()

	seedSess := sshclient.NewFakeSession()
	seedSess.Responses["show version"] = versionOutput()
	seedSess.Responses["show lldp neighbors detail"] = "SysName: r2\nMgmtIP: \nLocalPort: Gi0/1\nPortID: Gi0/2\n"
	dialer.Sessions["10.0.0.1:22"] = seedSess

	dir := t.TempDir()
	c := &Crawler{
		Dialer:        dialer,
		Templates:     neighborTemplates(),
		InventoryPath: filepath.Join(dir, "inventory.yaml"),
		TopologyPath:  filepath.Join(dir, "network.json"),
	}

	result, err := c.Run(context.Background(), Peer{Hostname: "r1", IP: "10.0.0.1"}, sshclient.Credentials{Username: "admin", Password: "x"}, Options{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	// only the seed is visited; r2 has no management IP so it is never dialed
	if result.DeviceCount != 1 {
		t.Fatalf("DeviceCount = %d, want 1", result.DeviceCount)
	}
	if len(dialer.Dialed) != 1 {
		t.Errorf("Dialed = %v, want only the seed dialed", dialer.Dialed)
	}
}

func TestRunRecordsFailedPeerAfterThreeAttempts(t *testing.T) {
	dialer := sshclient.NewFakeDialer()
	// no session scripted for 10.0.0.9 -> every dial attempt errors

	dir := t.TempDir()
	c := &Crawler{
		Dialer:        dialer,
		Templates:     neighborTemplates(),
		InventoryPath: filepath.Join(dir, "inventory.yaml"),
		TopologyPath:  filepath.Join(dir, "network.json"),
	}

	result, err := c.Run(context.Background(), Peer{Hostname: "ghost", IP: "10.0.0.9"}, sshclient.Credentials{Username: "admin", Password: "x"}, Options{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.DeviceCount != 0 {
		t.Errorf("DeviceCount = %d, want 0", result.DeviceCount)
	}
	if len(result.FailedPeers) != 1 || result.FailedPeers[0].Hostname != "ghost" {
		t.Fatalf("FailedPeers = %+v", result.FailedPeers)
	}
	if len(dialer.Dialed) != 3 {
		t.Errorf("Dialed %d times, want 3 retry attempts", len(dialer.Dialed))
	}
}

func TestRunPrefersLLDPOverCDPWhenBothPresent(t *testing.T) {
	dialer := sshclient.NewFakeDialer()
	seedSess := sshclient.NewFakeSession()
	seedSess.Responses["show version"] = versionOutput()
	seedSess.Responses["show lldp neighbors detail"] = "SysName: from-lldp\nMgmtIP: 10.0.0.2\nLocalPort: Gi0/1\nPortID: Gi0/2\n"
	seedSess.Responses["show cdp neighbors detail"] = "Device ID: from-cdp\nIP address: 10.0.0.3\nInterface: Gi0/1, Port ID (outgoing port): Gi0/4\n"
	dialer.Sessions["10.0.0.1:22"] = seedSess

	leafSess := sshclient.NewFakeSession()
	leafSess.Responses["show version"] = versionOutput()
	leafSess.Responses["show lldp neighbors detail"] = ""
	leafSess.Responses["show cdp neighbors detail"] = ""
	dialer.Sessions["10.0.0.2:22"] = leafSess

	dir := t.TempDir()
	c := &Crawler{
		Dialer:        dialer,
		Templates:     neighborTemplates(),
		InventoryPath: filepath.Join(dir, "inventory.yaml"),
		TopologyPath:  filepath.Join(dir, "network.json"),
	}

	_, err := c.Run(context.Background(), Peer{Hostname: "r1", IP: "10.0.0.1"}, sshclient.Credentials{Username: "admin", Password: "x"}, Options{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	topo, err := LoadTopology(c.TopologyPath)
	if err != nil {
		t.Fatalf("LoadTopology() error = %v", err)
	}
	if len(topo.Edges) != 1 || topo.Edges[0].RemoteHostname != "from-lldp" {
		t.Errorf("Edges = %+v, want lldp-derived neighbor only", topo.Edges)
	}
}

func TestRunMaxDepthStopsExpansion(t *testing.T) {
	dialer := sshclient.NewFakeDialer()
	seedSess := sshclient.NewFakeSession()
	seedSess.Responses["show version"] = versionOutput()
	seedSess.Responses["show lldp neighbors detail"] = "SysName: r2\nMgmtIP: 10.0.0.2\nLocalPort: Gi0/1\nPortID: Gi0/2\n"
	dialer.Sessions["10.0.0.1:22"] = seedSess
	// no session scripted for r2 -- if the crawler dials it, the test fails

	dir := t.TempDir()
	c := &Crawler{
		Dialer:        dialer,
		Templates:     neighborTemplates(),
		InventoryPath: filepath.Join(dir, "inventory.yaml"),
		TopologyPath:  filepath.Join(dir, "network.json"),
	}

	result, err := c.Run(context.Background(), Peer{Hostname: "r1", IP: "10.0.0.1"}, sshclient.Credentials{Username: "admin", Password: "x"}, Options{MaxDepth: 1}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.DeviceCount != 1 {
		t.Errorf("DeviceCount = %d, want 1 (depth cutoff)", result.DeviceCount)
	}
	if len(dialer.Dialed) != 1 {
		t.Errorf("Dialed = %v, want only the seed visited", dialer.Dialed)
	}
}
