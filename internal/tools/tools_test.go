package tools

import (
	"strings"
	"testing"
)

func TestIPInfo(t *testing.T) {
	got := IPInfo("192.168.1.100", "24")
	if got.Error != "" {
		t.Fatalf("IPInfo returned error: %s", got.Error)
	}
	want := &IPInfoResult{
		IPDecimal:        "192.168.1.100",
		IPBinary:         "11000000.10101000.00000001.01100100",
		SubnetMaskDotted: "255.255.255.0",
		SubnetMaskBinary: "11111111.11111111.11111111.00000000",
		SubnetMaskCIDR:   "/24",
		NetworkAddress:   "192.168.1.0",
		BroadcastAddress: "192.168.1.255",
		FirstHost:        "192.168.1.1",
		LastHost:         "192.168.1.254",
		TotalHosts:       254,
	}
	if *got != *want {
		t.Errorf("IPInfo = %+v, want %+v", got, want)
	}
}

func TestIPInfoSlash31(t *testing.T) {
	got := IPInfo("192.168.1.1", "/31")
	if got.Error != "" {
		t.Fatalf("IPInfo returned error: %s", got.Error)
	}
	if got.TotalHosts != 2 {
		t.Errorf("TotalHosts = %d, want 2", got.TotalHosts)
	}
	if got.FirstHost != "192.168.1.0" || got.LastHost != "192.168.1.1" {
		t.Errorf("host range = %s..%s, want 192.168.1.0..192.168.1.1", got.FirstHost, got.LastHost)
	}
	if got.NetworkAddress != got.FirstHost || got.BroadcastAddress != got.LastHost {
		t.Error("at /31 both addresses are usable; no network/broadcast exclusion")
	}
}

func TestIPInfoErrors(t *testing.T) {
	tests := []struct {
		name    string
		address string
		mask    string
	}{
		{"bad address", "300.1.1.1", "24"},
		{"bad mask", "192.168.1.1", "/40"},
		{"empty address", "", "24"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IPInfo(tt.address, tt.mask)
			if got.Error == "" {
				t.Fatalf("IPInfo(%q, %q) expected error, got %+v", tt.address, tt.mask, got)
			}
			if got.IPDecimal != "" || got.TotalHosts != 0 {
				t.Error("failed result must not be partially populated")
			}
		})
	}
}

func TestSubnetCalculateMaxSubnets(t *testing.T) {
	got := SubnetCalculate("192.168.1.0/24", "4", MethodMaxSubnets, "")
	if got.Error != "" {
		t.Fatalf("SubnetCalculate returned error: %s", got.Error)
	}
	if got.Method != "Max Subnets" {
		t.Errorf("Method = %q", got.Method)
	}
	if got.BitsBorrowed != 2 || got.HostsPerSubnet != 62 || got.TotalSubnets != 4 {
		t.Errorf("metadata = bits %d, hosts %d, total %d; want 2, 62, 4",
			got.BitsBorrowed, got.HostsPerSubnet, got.TotalSubnets)
	}
	wantSubnets := []string{"192.168.1.0/26", "192.168.1.64/26", "192.168.1.128/26", "192.168.1.192/26"}
	if len(got.Subnets) != len(wantSubnets) {
		t.Fatalf("len(Subnets) = %d, want %d", len(got.Subnets), len(wantSubnets))
	}
	for i, row := range got.Subnets {
		if row.Subnet != wantSubnets[i] {
			t.Errorf("subnet %d = %s, want %s", i, row.Subnet, wantSubnets[i])
		}
		if row.Hosts != 62 {
			t.Errorf("subnet %d hosts = %d, want 62", i, row.Hosts)
		}
	}
}

func TestSubnetCalculateMaxHosts(t *testing.T) {
	got := SubnetCalculate("192.168.1.0/24", "50", MethodMaxHosts, "")
	if got.Error != "" {
		t.Fatalf("SubnetCalculate returned error: %s", got.Error)
	}
	if got.Method != "Max Hosts per Subnet" {
		t.Errorf("Method = %q", got.Method)
	}
	// Unlike max_subnets, every subnet of the derived size is returned.
	if len(got.Subnets) != 4 {
		t.Fatalf("len(Subnets) = %d, want 4", len(got.Subnets))
	}
	if got.HostsPerSubnet != 62 || got.TotalSubnets != 4 {
		t.Errorf("metadata = hosts %d, total %d; want 62, 4", got.HostsPerSubnet, got.TotalSubnets)
	}
}

func TestSubnetCalculateVLSM(t *testing.T) {
	got := SubnetCalculate("192.168.1.0/24", "", MethodVLSM, "100,50,25,10")
	if got.Error != "" {
		t.Fatalf("SubnetCalculate returned error: %s", got.Error)
	}
	if got.Method != "VLSM" {
		t.Errorf("Method = %q", got.Method)
	}
	want := []struct {
		subnet string
		hosts  uint64
		req    int
	}{
		{"192.168.1.0/25", 126, 100},
		{"192.168.1.128/26", 62, 50},
		{"192.168.1.192/27", 30, 25},
		{"192.168.1.224/28", 14, 10},
	}
	if len(got.Subnets) != len(want) {
		t.Fatalf("len(Subnets) = %d, want %d", len(got.Subnets), len(want))
	}
	for i, w := range want {
		row := got.Subnets[i]
		if row.Subnet != w.subnet || row.Hosts != w.hosts || row.HostsRequested != w.req {
			t.Errorf("row %d = %+v, want subnet %s hosts %d requested %d", i, row, w.subnet, w.hosts, w.req)
		}
		if row.OriginalOrder != i+1 {
			t.Errorf("row %d OriginalOrder = %d, want %d", i, row.OriginalOrder, i+1)
		}
	}
	if got.TotalHostsRequested != 185 || got.TotalHostsAllocated != 232 {
		t.Errorf("totals = %d requested, %d allocated; want 185, 232",
			got.TotalHostsRequested, got.TotalHostsAllocated)
	}
	if got.Warning != "" {
		t.Errorf("unexpected warning %q", got.Warning)
	}
}

func TestSubnetCalculateVLSMCountDerived(t *testing.T) {
	// count absent and count zero both derive the count from the list.
	for _, count := range []string{"", "0", " "} {
		got := SubnetCalculate("192.168.1.0/24", count, MethodVLSM, "100,50")
		if got.Error != "" {
			t.Fatalf("count %q: unexpected error %s", count, got.Error)
		}
		if len(got.Subnets) != 2 {
			t.Errorf("count %q: len(Subnets) = %d, want 2", count, len(got.Subnets))
		}
	}
}

func TestSubnetCalculateVLSMCountOverride(t *testing.T) {
	got := SubnetCalculate("192.168.1.0/24", "5", MethodVLSM, "100,50,25,10")
	if got.Error != "" {
		t.Fatalf("unexpected error: %s", got.Error)
	}
	if len(got.Subnets) != 4 {
		t.Errorf("len(Subnets) = %d; hosts list length must win", len(got.Subnets))
	}
	if !strings.Contains(got.Warning, "5") || !strings.Contains(got.Warning, "4") {
		t.Errorf("Warning = %q; must report the overridden count", got.Warning)
	}
}

func TestSubnetCalculateVLSMMatchingCountNoWarning(t *testing.T) {
	got := SubnetCalculate("192.168.1.0/24", "4", MethodVLSM, "100,50,25,10")
	if got.Error != "" {
		t.Fatalf("unexpected error: %s", got.Error)
	}
	if got.Warning != "" {
		t.Errorf("unexpected warning %q", got.Warning)
	}
}

func TestSubnetCalculateErrors(t *testing.T) {
	tests := []struct {
		name    string
		network string
		count   string
		method  string
		hosts   string
	}{
		{"allocation failure", "192.168.1.0/30", "", MethodVLSM, "10"},
		{"bad network", "not-a-network", "4", MethodMaxSubnets, ""},
		{"bad method", "192.168.1.0/24", "4", "magic", ""},
		{"bad count", "192.168.1.0/24", "four", MethodMaxSubnets, ""},
		{"too many subnets", "192.168.1.0/24", "512", MethodMaxSubnets, ""},
		{"too many hosts", "192.168.1.0/24", "5000", MethodMaxHosts, ""},
		{"empty hosts list", "192.168.1.0/24", "", MethodVLSM, ""},
		{"negative host count", "192.168.1.0/24", "", MethodVLSM, "100,-5"},
		{"garbage hosts list", "192.168.1.0/24", "", MethodVLSM, "100,abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SubnetCalculate(tt.network, tt.count, tt.method, tt.hosts)
			if got.Error == "" {
				t.Fatalf("expected error, got %+v", got)
			}
			if len(got.Subnets) != 0 {
				t.Error("failed result must not carry subnets")
			}
		})
	}
}
