// Package discovery implements the discovery crawler (§4.1): BFS from a
// seed IP over CDP/LLDP neighbor tables, writing an inventory file and a
// topology document.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/velocitycmdb/velocitycmdb/internal/errs"
	"github.com/velocitycmdb/velocitycmdb/internal/fieldmap"
	"github.com/velocitycmdb/velocitycmdb/internal/inventory"
	"github.com/velocitycmdb/velocitycmdb/internal/progress"
	"github.com/velocitycmdb/velocitycmdb/internal/sshclient"
	"github.com/velocitycmdb/velocitycmdb/internal/templatedb"
	"github.com/velocitycmdb/velocitycmdb/internal/vendor"
	"github.com/velocitycmdb/velocitycmdb/pkg/models"
)

// Peer is one (hostname, ip) pair in the BFS open queue.
type Peer struct {
	Hostname string
	IP       string
}

// FailedPeer records a peer that failed SSH three consecutive times
// (§4.1 edge policy); it is not retried again this run.
type FailedPeer struct {
	Hostname string
	IP       string
	Reason   string
}

// Neighbor is one parsed CDP/LLDP neighbor record.
type Neighbor struct {
	Name            string
	IP              string
	LocalInterface  string
	RemoteInterface string
}

// Options controls crawl depth, per-hop timeout, and which inventory
// folder new sessions land in.
type Options struct {
	MaxDepth      int // 0 = unlimited
	PerHopTimeout time.Duration
	SiteName      string
}

func (o Options) withDefaults() Options {
	if o.PerHopTimeout <= 0 {
		o.PerHopTimeout = 15 * time.Second
	}
	if o.SiteName == "" {
		o.SiteName = "default"
	}
	return o
}

// Result is the crawl's public outcome (§4.1 public contract).
type Result struct {
	InventoryPath string
	TopologyPath  string
	DeviceCount   int
	FailedPeers   []FailedPeer
}

// LivenessProber checks whether an IP responds to ICMP before SSH is
// attempted. The Crawler calls it only when Prober is set, does not log
// or act on the result, and attempts SSH either way (§4.1: "a seed that
// blocks ICMP but allows SSH must still succeed").
type LivenessProber interface {
	Probe(ctx context.Context, ip string) bool
}

// Crawler runs the BFS discovery algorithm.
type Crawler struct {
	Dialer        sshclient.Dialer
	Templates     *templatedb.Database
	Prober        LivenessProber
	InventoryPath string
	TopologyPath  string
}

// Run crawls from seed and writes the inventory and topology documents
// (§4.1 algorithm).
func (c *Crawler) Run(ctx context.Context, seed Peer, creds sshclient.Credentials, opts Options, bus *progress.Bus) (*Result, error) {
	opts = opts.withDefaults()
	jobID := uuid.New().String()
	publish := func(e progress.Event) {
		if bus != nil {
			e.JobID = jobID
			bus.Publish(e)
		}
	}
	publish(progress.Event{Type: progress.JobStart})

	visited := make(map[string]bool)
	open := []Peer{seed}
	inv := &inventory.File{}
	topo := &Topology{}
	var failedPeers []FailedPeer

	for depth := 0; len(open) > 0; depth++ {
		if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
			break
		}
		levelSize := len(open)
		for i := 0; i < levelSize; i++ {
			peer := open[0]
			open = open[1:]

			key := peerKey(peer)
			if visited[key] {
				continue
			}
			visited[key] = true

			publish(progress.Event{Type: progress.DeviceStart, Device: peer.Hostname})

			if c.Prober != nil {
				c.Prober.Probe(ctx, peer.IP)
			}

			neighbors, hostname, err := c.visitPeer(ctx, peer, creds, opts)
			if err != nil {
				failedPeers = append(failedPeers, FailedPeer{Hostname: peer.Hostname, IP: peer.IP, Reason: err.Error()})
				publish(progress.Event{Type: progress.DeviceComplete, Device: peer.Hostname, Success: progress.BoolPtr(false), Message: err.Error()})
				continue
			}
			if hostname == "" {
				hostname = peer.IP
			}

			topo.Nodes = append(topo.Nodes, Node{Hostname: hostname, IP: peer.IP})
			inv.AddSession(opts.SiteName, inventory.Session{Name: hostname, IP: peer.IP, Port: 22})

			for _, n := range neighbors {
				topo.Edges = append(topo.Edges, Edge{
					LocalHostname:   hostname,
					LocalInterface:  n.LocalInterface,
					RemoteHostname:  n.Name,
					RemoteInterface: n.RemoteInterface,
					RemoteIP:        n.IP,
				})
				if n.IP == "" {
					continue
				}
				nKey := peerKey(Peer{Hostname: n.Name, IP: n.IP})
				if !visited[nKey] {
					open = append(open, Peer{Hostname: n.Name, IP: n.IP})
				}
			}

			publish(progress.Event{Type: progress.DeviceComplete, Device: hostname, Success: progress.BoolPtr(true)})
		}
	}

	if err := inventory.Save(c.InventoryPath, inv); err != nil {
		return nil, fmt.Errorf("save inventory: %w", err)
	}

	merged := topo
	if existing, err := LoadTopology(c.TopologyPath); err == nil {
		merged = MergeTopology(existing, topo)
	}
	if err := SaveTopology(c.TopologyPath, merged); err != nil {
		return nil, fmt.Errorf("save topology: %w", err)
	}

	publish(progress.Event{Type: progress.JobComplete})

	return &Result{
		InventoryPath: c.InventoryPath,
		TopologyPath:  c.TopologyPath,
		DeviceCount:   len(topo.Nodes),
		FailedPeers:   failedPeers,
	}, nil
}

// visitPeer dials peer (retrying up to three consecutive times per §4.1
// edge policy), runs the platform probe, and parses neighbor tables,
// preferring LLDP over CDP (§4.1 tie-break).
func (c *Crawler) visitPeer(ctx context.Context, peer Peer, creds sshclient.Credentials, opts Options) ([]Neighbor, string, error) {
	addr := fmt.Sprintf("%s:22", peer.IP)

	var sess sshclient.Session
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		dialCtx, cancel := context.WithTimeout(ctx, opts.PerHopTimeout)
		s, err := c.Dialer.Dial(dialCtx, addr, creds, sshclient.Config{CommandTimeout: opts.PerHopTimeout})
		cancel()
		if err == nil {
			sess = s
			lastErr = nil
			break
		}
		lastErr = err
	}
	if sess == nil {
		return nil, "", &errs.TransportError{Device: peer.Hostname, Op: "dial", Err: lastErr}
	}
	defer sess.Close()

	probeOut, err := sess.RunUntilPrompt(ctx, "show version", 1)
	if err != nil {
		return nil, "", &errs.ProtocolError{Device: peer.Hostname, Command: "show version", Err: err}
	}
	v := vendor.DetectFromSignature(probeOut)

	lldpOut, _ := sess.RunUntilPrompt(ctx, "show lldp neighbors detail", 1)
	neighbors := c.parseNeighbors(v, "show lldp neighbors detail", lldpOut)
	if len(neighbors) == 0 {
		cdpOut, _ := sess.RunUntilPrompt(ctx, "show cdp neighbors detail", 1)
		neighbors = c.parseNeighbors(v, "show cdp neighbors detail", cdpOut)
	}

	return neighbors, peer.Hostname, nil
}

func (c *Crawler) parseNeighbors(v vendor.Vendor, cmd, output string) []Neighbor {
	if output == "" || c.Templates == nil {
		return nil
	}
	filterList := c.Templates.FilterList(v, cmd)
	result, err := c.Templates.BestMatch(output, filterList, 1)
	if err != nil {
		return nil
	}
	return neighborsFromFields(result.Fields)
}

var neighborNameChain = fieldmap.Chain{Candidates: []string{"neighbor_name", "system_name", "name"}}
var neighborIPChain = fieldmap.Chain{Candidates: []string{"neighbor_ip", "mgmt_ip", "ip_address"}}
var localIntfChain = fieldmap.Chain{Candidates: []string{"local_interface", "local_intf", "local_port"}}
var remoteIntfChain = fieldmap.Chain{Candidates: []string{"remote_interface", "remote_intf", "port_id"}}

func neighborsFromFields(fields map[string][]string) []Neighbor {
	names := neighborNameChain.ResolveAll(fields)
	ips := neighborIPChain.ResolveAll(fields)
	localIntfs := localIntfChain.ResolveAll(fields)
	remoteIntfs := remoteIntfChain.ResolveAll(fields)

	var out []Neighbor
	for i, name := range names {
		out = append(out, Neighbor{
			Name:            name,
			IP:              valueAt(ips, i),
			LocalInterface:  valueAt(localIntfs, i),
			RemoteInterface: valueAt(remoteIntfs, i),
		})
	}
	return out
}

func valueAt(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

func peerKey(p Peer) string {
	if p.Hostname != "" {
		return models.NormalizeName(p.Hostname)
	}
	return p.IP
}
