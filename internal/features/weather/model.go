package weather

import "time"

const DefaultCity = "Bangalore"

// Report is the current weather for a city. Sample is set when the
// upstream lookup failed and placeholder values were returned instead.
type Report struct {
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"`
	Condition   string    `json:"condition"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"windSpeed"` // m/s
	Sample      bool      `json:"sample"`
	Message     string    `json:"message,omitempty"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// SampleReport is served when the upstream service is unavailable.
func SampleReport(city string, now time.Time) *Report {
	return &Report{
		City:        city,
		Temperature: 28,
		Condition:   "Partly Cloudy",
		Humidity:    65,
		WindSpeed:   3,
		Sample:      true,
		Message:     "Sample data (API unavailable)",
		FetchedAt:   now,
	}
}

// wttrResponse is the subset of the wttr.in j1 format we read.
type wttrResponse struct {
	CurrentCondition []struct {
		TempC         string `json:"temp_C"`
		Humidity      string `json:"humidity"`
		WindspeedKmph string `json:"windspeedKmph"`
		WeatherDesc   []struct {
			Value string `json:"value"`
		} `json:"weatherDesc"`
	} `json:"current_condition"`
}
