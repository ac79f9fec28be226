package geo

import "testing"

func TestDistanceZero(t *testing.T) {
	d := DistanceMeters(51.5007, -0.1246, 51.5007, -0.1246)
	if d != 0 {
		t.Errorf("distance to self = %f, want 0", d)
	}
}

func TestDistanceKnownPairs(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		wantMeters             float64
		tolerance              float64
	}{
		// Big Ben to the London Eye, roughly 320 m apart.
		{"short hop", 51.5007, -0.1246, 51.5033, -0.1196, 450, 150},
		// Paris to London, about 344 km.
		{"paris london", 48.8566, 2.3522, 51.5074, -0.1278, 344000, 2000},
		// One degree of latitude is about 111 km anywhere on the globe.
		{"one degree lat", 0, 0, 1, 0, 111195, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DistanceMeters(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if d < tt.wantMeters-tt.tolerance || d > tt.wantMeters+tt.tolerance {
				t.Errorf("distance = %f, want %f +/- %f", d, tt.wantMeters, tt.tolerance)
			}
		})
	}
}

func TestDistanceAwayFromEquator(t *testing.T) {
	// One degree of longitude shrinks with latitude. At 60 degrees north it
	// should be about half the equatorial value; a naive planar degree
	// distance gets this wrong.
	atEquator := DistanceMeters(0, 0, 0, 1)
	atSixty := DistanceMeters(60, 0, 60, 1)

	ratio := atSixty / atEquator
	if ratio < 0.45 || ratio > 0.55 {
		t.Errorf("60N/equator longitude ratio = %f, want about 0.5", ratio)
	}
}
