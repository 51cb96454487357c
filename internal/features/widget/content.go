package widget

import (
	"encoding/json"

	"go.uber.org/zap"
)

type ChartDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor any       `json:"backgroundColor,omitempty"`
	BorderColor     any       `json:"borderColor,omitempty"`
	BorderWidth     float64   `json:"borderWidth,omitempty"`
}

type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}

type TableData struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rows"`
}

type CalendarEvent struct {
	Date  string `json:"date"`
	Title string `json:"title"`
	Time  string `json:"time"`
}

func DefaultChartData() ChartData {
	return ChartData{
		Labels: []string{"Red", "Blue", "Yellow", "Green", "Purple", "Orange"},
		Datasets: []ChartDataset{{
			Label: "Votes",
			Data:  []float64{12, 19, 3, 5, 2, 3},
			BackgroundColor: []string{
				"rgba(255, 99, 132, 0.5)",
				"rgba(54, 162, 235, 0.5)",
				"rgba(255, 206, 86, 0.5)",
				"rgba(75, 192, 192, 0.5)",
				"rgba(153, 102, 255, 0.5)",
				"rgba(255, 159, 64, 0.5)",
			},
			BorderColor: []string{
				"rgba(255, 99, 132, 1)",
				"rgba(54, 162, 235, 1)",
				"rgba(255, 206, 86, 1)",
				"rgba(75, 192, 192, 1)",
				"rgba(153, 102, 255, 1)",
				"rgba(255, 159, 64, 1)",
			},
			BorderWidth: 1,
		}},
	}
}

func DefaultTableData() TableData {
	return TableData{
		Headers: []string{"Name", "Age", "City", "Salary"},
		Rows: [][]any{
			{"John Doe", "30", "New York", "$50,000"},
			{"Jane Smith", "25", "Los Angeles", "$45,000"},
			{"Bob Johnson", "35", "Chicago", "$60,000"},
			{"Alice Brown", "28", "Houston", "$55,000"},
		},
	}
}

func DefaultCalendarEvents() []CalendarEvent {
	return []CalendarEvent{
		{Date: "2024-01-15", Title: "Team Meeting", Time: "10:00 AM"},
		{Date: "2024-01-20", Title: "Project Deadline", Time: "5:00 PM"},
		{Date: "2024-01-25", Title: "Client Call", Time: "2:30 PM"},
	}
}

func DefaultRadioOptions() []string {
	return []string{"Option 1", "Option 2", "Option 3", "Option 4"}
}

// decodeOr unmarshals raw into a fresh T. A missing or malformed value
// yields def; malformed input is logged and never returned as an error.
func decodeOr[T any](log *zap.Logger, field string, raw *string, def T) T {
	if raw == nil || *raw == "" {
		return def
	}
	var out T
	if err := json.Unmarshal([]byte(*raw), &out); err != nil {
		if log != nil {
			log.Warn("Malformed widget payload, using default",
				zap.String("field", field),
				zap.Error(err),
			)
		}
		return def
	}
	return out
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// Render-time accessors. Absent fields fall back to the values the canvas
// shows for an unconfigured widget.

func (p *TextPayload) HeadingOrDefault() string { return strOr(p.Heading, "Heading") }
func (p *TextPayload) ContentOrDefault() string { return strOr(p.Content, "") }

func (p *ButtonPayload) ContentOrDefault() string { return strOr(p.Content, "Button") }

func (p *ChartPayload) TitleOrDefault() string { return strOr(p.ChartTitle, "Sample Bar Chart") }

func (p *ChartPayload) Data(log *zap.Logger) ChartData {
	return decodeOr(log, "chartData", p.ChartData, DefaultChartData())
}

func (p *TablePayload) TitleOrDefault() string { return strOr(p.TableTitle, "Sample Table") }

func (p *TablePayload) Data(log *zap.Logger) TableData {
	return decodeOr(log, "tableData", p.TableData, DefaultTableData())
}

func (p *CalendarPayload) TitleOrDefault() string { return strOr(p.Title, "Calendar") }

func (p *CalendarPayload) EventList(log *zap.Logger) []CalendarEvent {
	return decodeOr(log, "events", p.Events, DefaultCalendarEvents())
}

func (p *RadioGroupPayload) TitleOrDefault() string { return strOr(p.Title, "Select an option") }

func (p *RadioGroupPayload) OptionList(log *zap.Logger) []string {
	return decodeOr(log, "options", p.Options, DefaultRadioOptions())
}

func (p *RadioGroupPayload) SelectedOrDefault() string {
	return strOr(p.SelectedOption, "Option 1")
}

func (p *RangeSliderPayload) MinOrDefault() float64   { return floatOr(p.Min, 0) }
func (p *RangeSliderPayload) MaxOrDefault() float64   { return floatOr(p.Max, 100) }
func (p *RangeSliderPayload) ValueOrDefault() float64 { return floatOr(p.Value, 50) }
func (p *RangeSliderPayload) StepOrDefault() float64  { return floatOr(p.Step, 1) }

func (p *RatingPayload) MaxOrDefault() float64     { return floatOr(p.MaxRating, 5) }
func (p *RatingPayload) CurrentOrDefault() float64 { return floatOr(p.CurrentRating, 0) }

func (p *WeatherPayload) CityOrDefault() string { return strOr(p.City, "Bangalore") }

func (p *ImagePayload) URLOrDefault() string { return strOr(p.ImageURL, "https://picsum.photos/300/200") }

func (p *MicrophonePayload) Recording() bool {
	return p.IsRecording != nil && *p.IsRecording
}
