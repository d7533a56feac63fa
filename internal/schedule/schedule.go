// Package schedule parses raw train schedule exports into typed stop records.
//
// The input format is one delimited row per stop with a fixed 12-field header
// (train_no, train_name, sequence, station_code, station_name, arrival_time,
// departure_time, distance_from_source, source_station_code, source_station_name,
// destination_station_code, destination_station_name). Station names in the
// wild contain embedded commas, sometimes quoted and sometimes not, so parsing
// is quote-aware and deliberately lenient rather than strict CSV.
package schedule

// Stop is one station entry within a single train's schedule, carrying its
// cumulative distance from that train's origin station.
type Stop struct {
	TrainID            string
	TrainName          string
	Sequence           int
	StationCode        string
	StationName        string
	ArrivalTime        string
	DepartureTime      string
	DistanceFromOrigin float64
	OriginCode         string
	OriginName         string
	DestCode           string
	DestName           string
}

// Stats summarizes one parsed batch.
type Stats struct {
	Rows      int // data rows seen (header excluded)
	Parsed    int // rows that produced a Stop
	Malformed int // rows skipped as malformed
}
