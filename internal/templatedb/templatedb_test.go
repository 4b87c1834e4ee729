package templatedb

import (
	"context"
	"regexp"
	"testing"

	"github.com/velocitycmdb/velocitycmdb/internal/vendor"
)

func testDB() *Database {
	return NewDatabase([]Template{
		{
			Name:    "cisco_ios_version",
			Vendor:  vendor.CiscoIOS,
			Pattern: regexp.MustCompile(`(?m)^Cisco IOS Software.*Version (?P<software_version>\S+),`),
			Rows:    3,
		},
		{
			Name:    "generic_serial",
			Vendor:  vendor.Unknown,
			Pattern: regexp.MustCompile(`(?m)^System [Ss]erial [Nn]umber\s*:\s*(?P<serial>\S+)`),
			Rows:    1,
		},
	})
}

func TestFilterListOrdersVendorSpecificFirst(t *testing.T) {
	db := testDB()
	got := db.FilterList(vendor.CiscoIOS, "show version")
	if len(got) != 2 || got[0] != "cisco_ios_version" {
		t.Fatalf("FilterList() = %v, want [cisco_ios_version generic_serial]", got)
	}
}

func TestFilterListExcludesOtherVendors(t *testing.T) {
	db := NewDatabase([]Template{
		{Name: "junos_only", Vendor: vendor.JuniperJunOS, Pattern: regexp.MustCompile(`x`), Rows: 1},
	})
	got := db.FilterList(vendor.CiscoIOS, "show version")
	if len(got) != 0 {
		t.Errorf("FilterList() = %v, want empty", got)
	}
}

func TestScoreExtractsNamedFields(t *testing.T) {
	db := testDB()
	res, err := db.Score(context.Background(), "cisco_ios_version", "Cisco IOS Software, C3750 Software, Version 15.2(4)E10,\n")
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if got := res.Fields["software_version"]; len(got) != 1 || got[0] != "15.2(4)E10" {
		t.Errorf("Fields[software_version] = %v", got)
	}
}

func TestBestMatchPicksHighestScore(t *testing.T) {
	db := testDB()
	output := "Cisco IOS Software, C3750 Software, Version 15.2(4)E10,\nSystem serial number : FDO1234A1BC\n"
	filterList := db.FilterList(vendor.CiscoIOS, "show version")

	res, err := db.BestMatch(output, filterList, 1)
	if err != nil {
		t.Fatalf("BestMatch() error = %v", err)
	}
	if res.TemplateName != "cisco_ios_version" {
		t.Errorf("BestMatch() template = %q, want cisco_ios_version", res.TemplateName)
	}
}

func TestBestMatchLowConfidence(t *testing.T) {
	db := testDB()
	_, err := db.BestMatch("nothing matches here", []string{"cisco_ios_version"}, 1)
	if err != ErrLowConfidence {
		t.Errorf("BestMatch() error = %v, want ErrLowConfidence", err)
	}
}
