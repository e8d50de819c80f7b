package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// NotAvailable is rendered in place of a reading the provider did not supply.
const NotAvailable = "N/A"

// WeatherQuery is the inbound request body of /weather and /weather_with_ai.
type WeatherQuery struct {
	Token         string
	Location      string
	Date          string
	RequesterName string
}

// Reading is a provider value that may be missing. A present zero is Valid.
type Reading struct {
	Value float64
	Valid bool
}

// Known returns a valid Reading holding v.
func Known(v float64) Reading {
	return Reading{Value: v, Valid: true}
}

// String renders the value, or NotAvailable.
func (r Reading) String() string {
	if !r.Valid {
		return NotAvailable
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

// MarshalJSON encodes a JSON number, or the string "N/A".
func (r Reading) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return json.Marshal(NotAvailable)
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts a JSON number. null, strings and any other value
// leave the Reading invalid without failing the surrounding decode.
func (r *Reading) UnmarshalJSON(data []byte) error {
	*r = Reading{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || (data[0] != '-' && (data[0] < '0' || data[0] > '9')) {
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	*r = Known(v)
	return nil
}

// WeatherRecord is the fixed four-field projection of one provider day.
type WeatherRecord struct {
	TemperatureC Reading `json:"temp_c"`
	WindKPH      Reading `json:"wind_kph"`
	PressureMB   Reading `json:"pressure_mb"`
	Humidity     Reading `json:"humidity"`
}

// ResponseEnvelope is the 200 body of both weather endpoints.
// AISuggestion is set only by /weather_with_ai.
type ResponseEnvelope struct {
	RequesterName string        `json:"requester_name"`
	Timestamp     string        `json:"timestamp"`
	Location      string        `json:"location"`
	Date          string        `json:"date"`
	Weather       WeatherRecord `json:"weather"`
	AISuggestion  *string       `json:"ai_suggestion,omitempty"`
}
