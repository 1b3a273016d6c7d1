package catalog

import (
	"encoding/json"
	"iter"
	"slices"
	"testing"

	"github.com/kailas-cloud/kmlfilter/internal/domain/placemark"
)

func s(v string) *string { return &v }

func records(rs ...placemark.Record) iter.Seq[placemark.Record] {
	return slices.Values(rs)
}

func TestBuild_SortedDistinct(t *testing.T) {
	c := Build(records(
		placemark.Record{Client: s("Globex"), Status: s("Active"), District: s("North")},
		placemark.Record{Client: s("Acme"), Status: s("Active"), District: s("South")},
		placemark.Record{Client: s("Acme"), Status: s("Closed")},
	))

	if got := c.Clients(); !slices.Equal(got, []string{"Acme", "Globex"}) {
		t.Errorf("clients = %v", got)
	}
	if got := c.Statuses(); !slices.Equal(got, []string{"Active", "Closed"}) {
		t.Errorf("statuses = %v", got)
	}
	if got := c.Districts(); !slices.Equal(got, []string{"North", "South"}) {
		t.Errorf("districts = %v", got)
	}
}

func TestBuild_SkipsAbsentAndEmpty(t *testing.T) {
	c := Build(records(
		placemark.Record{Client: s("")},
		placemark.Record{},
		placemark.Record{Client: s("Acme")},
	))

	if got := c.Clients(); !slices.Equal(got, []string{"Acme"}) {
		t.Errorf("clients = %v", got)
	}
	if c.Contains(placemark.FieldClient, "") {
		t.Error("empty string must not be a catalog member")
	}
}

func TestBuild_FreeTextNotCollected(t *testing.T) {
	c := Build(records(placemark.Record{Reference: s("near the bridge")}))
	if got := c.Values(placemark.FieldReference); len(got) != 0 {
		t.Errorf("reference values = %v, want none", got)
	}
}

func TestContains_ExactMatch(t *testing.T) {
	c := Build(records(placemark.Record{Client: s("Acme")}))

	tests := []struct {
		v    string
		want bool
	}{
		{"Acme", true},
		{"acme", false},
		{"Acme ", false},
		{"Ac", false},
	}
	for _, tc := range tests {
		if got := c.Contains(placemark.FieldClient, tc.v); got != tc.want {
			t.Errorf("Contains(%q) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

func TestValues_ReturnsCopy(t *testing.T) {
	c := Build(records(placemark.Record{Client: s("Acme")}))
	got := c.Clients()
	got[0] = "mutated"
	if c.Clients()[0] != "Acme" {
		t.Error("catalog mutated through returned slice")
	}
}

func TestMarshalJSON_EmptyArrays(t *testing.T) {
	data, err := json.Marshal(Build(records()))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"clients":[],"statuses":[],"districts":[]}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}
