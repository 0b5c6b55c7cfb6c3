package scoring

import (
	"math"
	"sort"
)

// AggregatedMetrics maps "<key>_avg", "<key>_min" and "<key>_max" to values.
type AggregatedMetrics map[string]float64

// Aggregate folds vectors into avg/min/max per key. Only the keys of the
// first vector are aggregated; missing, NaN and infinite values are skipped,
// and a key with no usable value is omitted. Keys that appear only in later
// vectors are never aggregated.
//
// TODO: aggregate the union of keys once comparison readers accept new keys.
func Aggregate(vectors []MetricVector) AggregatedMetrics {
	out := AggregatedMetrics{}
	if len(vectors) == 0 {
		return out
	}
	keys := make([]string, 0, len(vectors[0]))
	for k := range vectors[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var sum, lo, hi float64
		n := 0
		for _, v := range vectors {
			x, ok := v[key]
			if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
				continue
			}
			if n == 0 || x < lo {
				lo = x
			}
			if n == 0 || x > hi {
				hi = x
			}
			sum += x
			n++
		}
		if n == 0 {
			continue
		}
		out[key+"_avg"] = sum / float64(n)
		out[key+"_min"] = lo
		out[key+"_max"] = hi
	}
	return out
}
