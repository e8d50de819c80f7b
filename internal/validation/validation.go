package validation

import (
	"crypto/subtle"
	"encoding/json"

	"github.com/kjstillabower/weather-saas/internal/apperror"
	"github.com/kjstillabower/weather-saas/internal/models"
)

// DecodeQuery parses a request body into a WeatherQuery. The body must be a JSON object.
// Fields that are absent or not JSON strings decode as empty, so they fail ValidateQuery
// the same way a missing field does.
func DecodeQuery(body []byte) (models.WeatherQuery, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return models.WeatherQuery{}, apperror.Validation(apperror.MsgInvalidBody)
	}
	return models.WeatherQuery{
		Token:         stringField(raw, "token"),
		Location:      stringField(raw, "location"),
		Date:          stringField(raw, "date"),
		RequesterName: stringField(raw, "requester_name"),
	}, nil
}

func stringField(raw map[string]json.RawMessage, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}

// ValidateQuery checks the shared token first, then the required fields.
// Location and date are passed through verbatim; the weather provider validates them.
func ValidateQuery(q models.WeatherQuery, apiToken string) error {
	if !tokenMatches(q.Token, apiToken) {
		return apperror.Auth()
	}
	if q.Location == "" || q.Date == "" || q.RequesterName == "" {
		return apperror.Validation(apperror.MsgMissingFields)
	}
	return nil
}

func tokenMatches(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
