package dashboard

import (
	"fmt"
	"strings"

	"go-dashboard/internal/features/document"
	"go-dashboard/internal/features/widget"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const widgetsSheet = "Widgets"

var widgetColumns = []string{"id", "type", "x", "y", "width", "height", "summary"}

var calendarColumns = []string{"Date", "Title", "Time"}

// exportXLSX renders the widget list on one sheet, then one sheet per
// table, chart and calendar widget with its decoded data.
func exportXLSX(doc *document.Dashboard, log *zap.Logger) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", widgetsSheet); err != nil {
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	if err := writeRow(f, widgetsSheet, 1, toCells(widgetColumns), headerStyle); err != nil {
		return nil, err
	}
	for i, w := range doc.Widgets {
		row := []interface{}{w.ID, string(w.Type), w.X, w.Y, w.Width, w.Height, widgetSummary(w, log)}
		if err := writeRow(f, widgetsSheet, i+2, row, 0); err != nil {
			return nil, err
		}
	}
	for i := range widgetColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(widgetsSheet, col, col, 15)
	}

	var tables, charts, calendars int
	for _, w := range doc.Widgets {
		var err error
		switch p := w.Payload.(type) {
		case *widget.TablePayload:
			tables++
			err = writeTableSheet(f, fmt.Sprintf("Table %d", tables), p, headerStyle, log)
		case *widget.ChartPayload:
			charts++
			err = writeChartSheet(f, fmt.Sprintf("Chart %d", charts), p, headerStyle, log)
		case *widget.CalendarPayload:
			calendars++
			err = writeCalendarSheet(f, fmt.Sprintf("Calendar %d", calendars), p, headerStyle, log)
		}
		if err != nil {
			return nil, err
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// widgetSummary is the one-line text the canvas shows for w.
func widgetSummary(w widget.Widget, log *zap.Logger) string {
	switch p := w.Payload.(type) {
	case *widget.TextPayload:
		return p.HeadingOrDefault()
	case *widget.ButtonPayload:
		return p.ContentOrDefault()
	case *widget.ChartPayload:
		return p.TitleOrDefault()
	case *widget.TablePayload:
		return p.TitleOrDefault()
	case *widget.CalendarPayload:
		return fmt.Sprintf("%s (%d events)", p.TitleOrDefault(), len(p.EventList(log)))
	case *widget.WeatherPayload:
		return p.CityOrDefault()
	case *widget.ImagePayload:
		return p.URLOrDefault()
	case *widget.RatingPayload:
		return fmt.Sprintf("%g/%g", p.CurrentOrDefault(), p.MaxOrDefault())
	case *widget.RangeSliderPayload:
		return fmt.Sprintf("%g (%g-%g, step %g)", p.ValueOrDefault(), p.MinOrDefault(), p.MaxOrDefault(), p.StepOrDefault())
	case *widget.RadioGroupPayload:
		return fmt.Sprintf("%s: %s of %s", p.TitleOrDefault(), p.SelectedOrDefault(), strings.Join(p.OptionList(log), ", "))
	case *widget.MicrophonePayload:
		if p.Recording() {
			return "recording"
		}
		return "idle"
	}
	return ""
}

func writeTableSheet(f *excelize.File, sheet string, p *widget.TablePayload, headerStyle int, log *zap.Logger) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	data := p.Data(log)
	if err := f.SetCellValue(sheet, "A1", p.TitleOrDefault()); err != nil {
		return err
	}
	if err := writeRow(f, sheet, 2, toCells(data.Headers), headerStyle); err != nil {
		return err
	}
	for r, cells := range data.Rows {
		if err := writeRow(f, sheet, r+3, cells, 0); err != nil {
			return err
		}
	}
	return nil
}

// writeChartSheet lays the chart out as a grid: labels across row 2, one
// dataset per following row.
func writeChartSheet(f *excelize.File, sheet string, p *widget.ChartPayload, headerStyle int, log *zap.Logger) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	data := p.Data(log)
	if err := f.SetCellValue(sheet, "A1", p.TitleOrDefault()); err != nil {
		return err
	}
	header := append([]interface{}{"Series"}, toCells(data.Labels)...)
	if err := writeRow(f, sheet, 2, header, headerStyle); err != nil {
		return err
	}
	for r, ds := range data.Datasets {
		cells := make([]interface{}, 0, len(ds.Data)+1)
		cells = append(cells, ds.Label)
		for _, v := range ds.Data {
			cells = append(cells, v)
		}
		if err := writeRow(f, sheet, r+3, cells, 0); err != nil {
			return err
		}
	}
	return nil
}

func writeCalendarSheet(f *excelize.File, sheet string, p *widget.CalendarPayload, headerStyle int, log *zap.Logger) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	if err := f.SetCellValue(sheet, "A1", p.TitleOrDefault()); err != nil {
		return err
	}
	if err := writeRow(f, sheet, 2, toCells(calendarColumns), headerStyle); err != nil {
		return err
	}
	for r, ev := range p.EventList(log) {
		if err := writeRow(f, sheet, r+3, []interface{}{ev.Date, ev.Title, ev.Time}, 0); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}, style int) error {
	for i, v := range cells {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
		if style != 0 {
			f.SetCellStyle(sheet, cell, cell, style)
		}
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
