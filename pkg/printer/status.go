package printer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Status is the merged view of the printer's telemetry stream. The
// firmware pushes partial updates, so each field keeps its last known
// value; a nil field has never been reported. Values arrive as numbers,
// strings, or single-element lists depending on firmware mood.
type Status struct {
	TotalLayers  *int64   `json:"totalLayers,omitempty"`
	CurrentLayer *int64   `json:"currentLayer,omitempty"`
	NozzleTemp   *float64 `json:"nozzleTemp,omitempty"`
	BedTemp      *float64 `json:"bedTemp,omitempty"`
	Progress     *float64 `json:"progress,omitempty"`
	Position     *string  `json:"position,omitempty"`
	PrintTime    *int64   `json:"printTime,omitempty"`
	TimeLeft     *int64   `json:"timeLeft,omitempty"`
	MaterialMM   *float64 `json:"materialMM,omitempty"`
	Speed        *float64 `json:"speed,omitempty"`
}

// Apply merges one raw telemetry frame into s and reports whether any
// field changed. Frames that are not JSON objects are ignored.
func (s *Status) Apply(msg []byte) bool {
	var raw map[string]any
	if err := json.Unmarshal(msg, &raw); err != nil {
		return false
	}
	changed := false
	if v, ok := coerceFloat(raw["TotalLayer"]); ok {
		assign(&s.TotalLayers, int64(v), &changed)
	}
	if v, ok := coerceFloat(raw["layer"]); ok {
		assign(&s.CurrentLayer, int64(v), &changed)
	}
	if v, ok := coerceFloat(raw["nozzleTemp"]); ok {
		assign(&s.NozzleTemp, v, &changed)
	}
	if v, ok := coerceFloat(raw["bedTemp0"]); ok {
		assign(&s.BedTemp, v, &changed)
	}
	if v, ok := coerceFloat(raw["printProgress"]); ok {
		assign(&s.Progress, v, &changed)
	}
	if v, ok := coerceString(raw["curPosition"]); ok {
		assign(&s.Position, v, &changed)
	}
	if v, ok := coerceFloat(raw["printJobTime"]); ok {
		assign(&s.PrintTime, int64(v), &changed)
	}
	if v, ok := coerceFloat(raw["printLeftTime"]); ok {
		assign(&s.TimeLeft, int64(v), &changed)
	}
	if v, ok := coerceFloat(raw["usedMaterialLength"]); ok {
		assign(&s.MaterialMM, v, &changed)
	}
	if v, ok := coerceFloat(raw["realTimeSpeed"]); ok {
		assign(&s.Speed, v, &changed)
	}
	return changed
}

func assign[T comparable](dst **T, v T, changed *bool) {
	if *dst == nil || **dst != v {
		val := v
		*dst = &val
		*changed = true
	}
}

// coerceFloat accepts a number, a numeric string, or a list whose first
// element is either. Anything else is dropped.
func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case []any:
		if len(t) == 0 {
			return 0, false
		}
		return coerceFloat(t[0])
	default:
		return 0, false
	}
}

func coerceString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

const notAvailable = "N/A"

// Field is one labeled display value for the status surfaces.
type Field struct {
	Label string
	Value string
}

// Fields renders the status as the fixed display rows, with N/A for
// anything the firmware has not reported yet.
func (s *Status) Fields() []Field {
	return []Field{
		{Label: "Progress", Value: s.ProgressLine(30)},
		{Label: "Total Layers", Value: fmtInt(s.TotalLayers)},
		{Label: "Current Layer", Value: fmtInt(s.CurrentLayer)},
		{Label: "Nozzle Temp", Value: fmtTemp(s.NozzleTemp)},
		{Label: "Bed Temp", Value: fmtTemp(s.BedTemp)},
		{Label: "Position", Value: fmtString(s.Position)},
		{Label: "Print Time", Value: fmtClock(s.PrintTime)},
		{Label: "Time Left", Value: fmtClock(s.TimeLeft)},
		{Label: "Material Used", Value: fmtMeters(s.MaterialMM)},
		{Label: "Speed", Value: fmtSpeed(s.Speed)},
	}
}

// ProgressLine renders "42% [████░░...]" with a bar of the given width,
// or N/A before the first progress report.
func (s *Status) ProgressLine(width int) string {
	if s.Progress == nil {
		return notAvailable
	}
	pct := int(*s.Progress)
	filled := pct * width / 100
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("%d%% [%s%s]", pct,
		strings.Repeat("█", filled), strings.Repeat("░", width-filled))
}

func fmtInt(v *int64) string {
	if v == nil {
		return notAvailable
	}
	return strconv.FormatInt(*v, 10)
}

func fmtTemp(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2f°C", *v)
}

func fmtString(v *string) string {
	if v == nil {
		return notAvailable
	}
	return *v
}

func fmtClock(v *int64) string {
	if v == nil {
		return notAvailable
	}
	sec := *v
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec%3600/60, sec%60)
}

func fmtMeters(mm *float64) string {
	if mm == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2f m", *mm/1000)
}

func fmtSpeed(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf("%d mm/s", int(math.Round(*v)))
}
