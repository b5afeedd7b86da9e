package deck

import (
	"reflect"
	"testing"
)

func TestDiscover(t *testing.T) {
	allIDs := []string{
		"street_market",
		"street_busker",
		"streets_of_rage", // matches "streets", not "street"
		"tavern_brawl",
		"street",
	}
	got := Discover(allIDs, "street")
	want := []string{"street_market", "street_busker"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Discover = %v, want %v", got, want)
	}
}

func TestDiscoverNoMatches(t *testing.T) {
	if got := Discover([]string{"tavern_brawl"}, "street"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestFunctionID(t *testing.T) {
	if got := FunctionID("street_market"); got != "fn_street_market" {
		t.Fatalf("FunctionID = %q", got)
	}
}
