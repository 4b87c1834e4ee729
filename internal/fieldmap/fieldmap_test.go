package fieldmap

import (
	"reflect"
	"testing"
)

func TestResolvePrefersFirstCandidate(t *testing.T) {
	fields := map[string][]string{
		"chassis_serial": {"FDO1234A1BC"},
		"serial":         {"other"},
	}
	got, ok := SerialNumber.Resolve(fields)
	if !ok || got != "FDO1234A1BC" {
		t.Errorf("Resolve() = (%q, %v), want (FDO1234A1BC, true)", got, ok)
	}
}

func TestResolveFallsThroughOnExcluded(t *testing.T) {
	fields := map[string][]string{
		"chassis_serial": {"N/A"},
		"serial":         {"FDO9999Z"},
	}
	got, ok := SerialNumber.Resolve(fields)
	if !ok || got != "FDO9999Z" {
		t.Errorf("Resolve() = (%q, %v), want (FDO9999Z, true)", got, ok)
	}
}

func TestResolveNoMatch(t *testing.T) {
	_, ok := SerialNumber.Resolve(map[string][]string{"chassis_serial": {"N/A"}})
	if ok {
		t.Error("Resolve() ok = true, want false")
	}
}

func TestResolveAllReturnsStackedValues(t *testing.T) {
	fields := map[string][]string{
		"component_serial": {"FDO1", "N/A", "FDO2"},
	}
	got := ComponentSerial.ResolveAll(fields)
	want := []string{"FDO1", "FDO2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ResolveAll() = %v, want %v", got, want)
	}
}
