package widget

import "errors"

var (
	ErrUnknownType = errors.New("unknown widget type")
	ErrMissingID   = errors.New("widget id is required")
)

// Payload is the type-specific part of a widget. The set of implementations
// is closed; each one belongs to exactly one Type. Fields are pointers so an
// absent value stays absent in storage and defaults are only substituted by
// the accessor methods.
type Payload interface {
	WidgetType() Type
	isPayload()
}

type TextPayload struct {
	Heading *string `json:"heading,omitempty"`
	Content *string `json:"content,omitempty"`
}

type ChartPayload struct {
	ChartTitle *string `json:"chartTitle,omitempty"`
	ChartData  *string `json:"chartData,omitempty"`
}

type TablePayload struct {
	TableTitle *string `json:"tableTitle,omitempty"`
	TableData  *string `json:"tableData,omitempty"`
}

type ButtonPayload struct {
	Content *string `json:"content,omitempty"`
}

type WeatherPayload struct {
	City        *string `json:"city,omitempty"`
	Temperature *string `json:"temperature,omitempty"`
	Condition   *string `json:"condition,omitempty"`
	Humidity    *string `json:"humidity,omitempty"`
	WindSpeed   *string `json:"windSpeed,omitempty"`
}

type CalendarPayload struct {
	Title  *string `json:"title,omitempty"`
	Events *string `json:"events,omitempty"`
}

type ImagePayload struct {
	ImageURL *string `json:"imageUrl,omitempty"`
	AltText  *string `json:"altText,omitempty"`
	Caption  *string `json:"caption,omitempty"`
}

type RatingPayload struct {
	Title         *string  `json:"title,omitempty"`
	MaxRating     *float64 `json:"maxRating,omitempty"`
	CurrentRating *float64 `json:"currentRating,omitempty"`
}

type RangeSliderPayload struct {
	Title *string  `json:"title,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Value *float64 `json:"value,omitempty"`
	Step  *float64 `json:"step,omitempty"`
}

type RadioGroupPayload struct {
	Title          *string `json:"title,omitempty"`
	Options        *string `json:"options,omitempty"`
	SelectedOption *string `json:"selectedOption,omitempty"`
}

type MicrophonePayload struct {
	Title         *string  `json:"title,omitempty"`
	IsRecording   *bool    `json:"isRecording,omitempty"`
	RecordingTime *float64 `json:"recordingTime,omitempty"`
}

func (*TextPayload) WidgetType() Type        { return TypeText }
func (*ChartPayload) WidgetType() Type       { return TypeChart }
func (*TablePayload) WidgetType() Type       { return TypeTable }
func (*ButtonPayload) WidgetType() Type      { return TypeButton }
func (*WeatherPayload) WidgetType() Type     { return TypeWeather }
func (*CalendarPayload) WidgetType() Type    { return TypeCalendar }
func (*ImagePayload) WidgetType() Type       { return TypeImage }
func (*RatingPayload) WidgetType() Type      { return TypeRating }
func (*RangeSliderPayload) WidgetType() Type { return TypeRangeSlider }
func (*RadioGroupPayload) WidgetType() Type  { return TypeRadioGroup }
func (*MicrophonePayload) WidgetType() Type  { return TypeMicrophone }

func (*TextPayload) isPayload()        {}
func (*ChartPayload) isPayload()       {}
func (*TablePayload) isPayload()       {}
func (*ButtonPayload) isPayload()      {}
func (*WeatherPayload) isPayload()     {}
func (*CalendarPayload) isPayload()    {}
func (*ImagePayload) isPayload()       {}
func (*RatingPayload) isPayload()      {}
func (*RangeSliderPayload) isPayload() {}
func (*RadioGroupPayload) isPayload()  {}
func (*MicrophonePayload) isPayload()  {}

// newPayload returns an empty payload for t, or nil for an unknown type.
func newPayload(t Type) Payload {
	switch t {
	case TypeText:
		return &TextPayload{}
	case TypeChart:
		return &ChartPayload{}
	case TypeTable:
		return &TablePayload{}
	case TypeButton:
		return &ButtonPayload{}
	case TypeWeather:
		return &WeatherPayload{}
	case TypeCalendar:
		return &CalendarPayload{}
	case TypeImage:
		return &ImagePayload{}
	case TypeRating:
		return &RatingPayload{}
	case TypeRangeSlider:
		return &RangeSliderPayload{}
	case TypeRadioGroup:
		return &RadioGroupPayload{}
	case TypeMicrophone:
		return &MicrophonePayload{}
	}
	return nil
}

// Typed views. Each returns nil when the widget is of another type.

func (w Widget) Text() *TextPayload {
	p, _ := w.Payload.(*TextPayload)
	return p
}

func (w Widget) Chart() *ChartPayload {
	p, _ := w.Payload.(*ChartPayload)
	return p
}

func (w Widget) Table() *TablePayload {
	p, _ := w.Payload.(*TablePayload)
	return p
}

func (w Widget) Button() *ButtonPayload {
	p, _ := w.Payload.(*ButtonPayload)
	return p
}

func (w Widget) Weather() *WeatherPayload {
	p, _ := w.Payload.(*WeatherPayload)
	return p
}

func (w Widget) Calendar() *CalendarPayload {
	p, _ := w.Payload.(*CalendarPayload)
	return p
}

func (w Widget) Image() *ImagePayload {
	p, _ := w.Payload.(*ImagePayload)
	return p
}

func (w Widget) Rating() *RatingPayload {
	p, _ := w.Payload.(*RatingPayload)
	return p
}

func (w Widget) RangeSlider() *RangeSliderPayload {
	p, _ := w.Payload.(*RangeSliderPayload)
	return p
}

func (w Widget) RadioGroup() *RadioGroupPayload {
	p, _ := w.Payload.(*RadioGroupPayload)
	return p
}

func (w Widget) Microphone() *MicrophonePayload {
	p, _ := w.Payload.(*MicrophonePayload)
	return p
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }

func strOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
