package ride

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ridecheck/internal/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		home string
		work string
		want types.Topology
	}{
		{
			name: "same city and zone",
			home: "Anshan City Tiedong District",
			work: "Anshan City Tiedong District",
			want: types.TopologyCoLocated,
		},
		{
			name: "same city different zone",
			home: "Anshan City Tiedong District",
			work: "Anshan City Lishan District",
			want: types.TopologyCrossZone,
		},
		{
			name: "different cities without zones",
			home: "Anshan City",
			work: "Beijing City",
			want: types.TopologyCrossCity,
		},
		{
			name: "zone absent on one side",
			home: "Anshan City",
			work: "Anshan City Lishan District",
			want: types.TopologyCrossZone,
		},
		{
			name: "zone absent on both sides",
			home: "Anshan City",
			work: "Anshan City",
			want: types.TopologyCrossZone,
		},
		{
			name: "chinese identifiers same zone",
			home: "鞍山市铁东区",
			work: "鞍山市铁东区",
			want: types.TopologyCoLocated,
		},
		{
			name: "chinese identifiers different zones",
			home: "鞍山市铁东区",
			work: "鞍山市立山区",
			want: types.TopologyCrossZone,
		},
		{
			name: "chinese identifiers different cities",
			home: "鞍山市铁东区",
			work: "沈阳市和平区",
			want: types.TopologyCrossCity,
		},
		{
			name: "marker missing on one side",
			home: "Anshan",
			work: "Anshan City Tiedong District",
			want: types.TopologyCrossCity,
		},
		{
			name: "marker missing and identical",
			home: "Anshan",
			work: "Anshan",
			want: types.TopologyCrossZone,
		},
		{
			name: "case differences are not normalized",
			home: "Anshan City Tiedong District",
			work: "anshan City Tiedong District",
			want: types.TopologyCrossCity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.home, tt.work))
		})
	}
}

func TestSplitLocation(t *testing.T) {
	p := SplitLocation("Anshan City Tiedong District")
	assert.Equal(t, "Anshan City", p.City)
	assert.Equal(t, "Tiedong District", p.Zone)
	assert.True(t, p.HasZone)
	assert.False(t, p.Malformed)

	p = SplitLocation("Beijing City")
	assert.Equal(t, "Beijing City", p.City)
	assert.False(t, p.HasZone)
	assert.False(t, p.Malformed)

	p = SplitLocation("Anshan")
	assert.Equal(t, "Anshan", p.City)
	assert.False(t, p.HasZone)
	assert.True(t, p.Malformed)
}

func TestSplitLocation_FirstMarkerWins(t *testing.T) {
	p := SplitLocation("Dalian City Jinzhou New City Area")
	assert.Equal(t, "Dalian City", p.City)
	assert.Equal(t, "Jinzhou New City Area", p.Zone)

	p = SplitLocation("辽宁省鞍山市铁东区")
	assert.Equal(t, "辽宁省鞍山市", p.City)
	assert.Equal(t, "铁东区", p.Zone)
}

func TestNewClassifier_CustomMarkers(t *testing.T) {
	c := NewClassifier("-shi", "")

	p := c.Split("Anshan-shi Tiedong")
	assert.Equal(t, "Anshan-shi", p.City)
	assert.Equal(t, "Tiedong", p.Zone)

	assert.Equal(t, types.TopologyCrossCity, c.Classify("Anshan City Tiedong", "Anshan City Tiedong"),
		"default markers must not apply once custom markers are given")
}
