package models

// NewsEvent is one normalized news article row produced by the miner.
// Day keeps the raw 8-digit YYYYMMDD encoding from the source feed; parsing
// to a calendar date happens in the transform stage. Tone may be a genuine
// reported score or a synthetic fallback draw; the two are indistinguishable
// once written (kept for output parity with the upstream feed).
type NewsEvent struct {
	GlobalEventID int     `json:"global_event_id" bson:"GlobalEventID"`
	Day           string  `json:"day" bson:"Day"`
	Country       string  `json:"country" bson:"Country"`
	Tone          float64 `json:"tone" bson:"Tone"`
	SourceURL     string  `json:"source_url" bson:"SourceURL"`
}
