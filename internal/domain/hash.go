package domain

// NameHash computes a deterministic 31-multiplier polynomial hash of a
// location name with 32-bit signed wraparound:
//
//	h(0) = 0;  h(i) = h(i−1)·31 + byte(i)  (mod 2³², two's complement)
//
// The explicit int32 arithmetic makes the overflow semantics part of the
// contract: the series generator and the coordinate fallback both consume
// this hash, and every consumer of the same name must agree on the value.
// Only internal self-consistency is promised; no compatibility with any
// other system's string hash is implied.
func NameHash(name string) int32 {
	var h int32
	for i := 0; i < len(name); i++ {
		h = h*31 + int32(name[i])
	}
	return h
}

// FallbackCoordinates derives deterministic placeholder coordinates from a
// location name, used when geocoding is disabled or returns no result. The
// point lands inside India's bounding box (lat 8–36, lon 68–97) so synthetic
// sites render on the monitoring map.
func FallbackCoordinates(name string) (lat, lng float64) {
	h := absHash(NameHash(name))
	lat = 8.0 + float64(h%2000)/2000.0*28.0
	lng = 68.0 + float64((h/2000)%2400)/2400.0*29.0
	return round4(lat), round4(lng)
}

// absHash widens to int64 before negating so math.MinInt32 doesn't overflow.
func absHash(h int32) int64 {
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}
