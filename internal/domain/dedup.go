package domain

type dedupKey struct {
	recordID string
	kind     VariableKind
}

// Deduplicate keeps the first anomaly seen for each (record ID, variable kind)
// pair and reports how many were dropped.
//
// The key deliberately ignores the metric: tasmax and tasmin anomalies on the
// same record collide under KindTemperature, and whichever comes first in the
// input survives. Callers control the outcome through input order.
func Deduplicate(anomalies []Anomaly) ([]Anomaly, int) {
	seen := make(map[dedupKey]struct{}, len(anomalies))
	unique := make([]Anomaly, 0, len(anomalies))
	for _, a := range anomalies {
		key := dedupKey{recordID: a.RecordID, kind: a.Kind}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, a)
	}
	return unique, len(anomalies) - len(unique)
}
