package engine

import (
	"math"
	"time"

	"github.com/denamwangi/katy-trail-live/internal/model"
)

const earthRadiusMeters = 6371000.0

// ShouldReport decides whether an asset-tracking section is due: always
// on the first evaluation, then on a heartbeat interval regardless of
// movement, then on geodesic displacement beyond the threshold. It is a
// pure function of its inputs; the caller records the fix only after a
// report actually goes out.
func ShouldReport(last *model.SentFix, pos model.Position, now time.Time, heartbeat time.Duration, minMoveMeters float64) bool {
	if last == nil {
		return true
	}
	if now.Sub(last.Timestamp) > heartbeat {
		return true
	}
	return DistanceMeters(last.Position, pos) > minMoveMeters
}

// DistanceMeters is the great-circle distance between two coordinates on
// a spherical Earth.
func DistanceMeters(a, b model.Position) float64 {
	phi1 := a.Latitude * math.Pi / 180
	phi2 := b.Latitude * math.Pi / 180
	dPhi := (b.Latitude - a.Latitude) * math.Pi / 180
	dLambda := (b.Longitude - a.Longitude) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	if h > 1 {
		h = 1
	}
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
