package widget

import (
	"encoding/json"
	"reflect"
	"strings"
)

// ToMap returns the flat stored form of w: base fields, set payload fields
// and preserved unknown keys side by side in one record.
func (w Widget) ToMap() map[string]any {
	m := make(map[string]any, len(w.Extra)+12)
	for k, v := range w.Extra {
		m[k] = v
	}
	if w.Payload != nil {
		for k, v := range payloadFields(w.Payload) {
			m[k] = v
		}
	}
	m["id"] = w.ID
	m["type"] = string(w.Type)
	m["x"] = w.X
	m["y"] = w.Y
	m["width"] = w.Width
	m["height"] = w.Height
	return m
}

// FromMap decodes a flat stored record. Keys that are not base fields, or
// payload fields of the widget's type with a value of the right kind, are
// kept verbatim in Extra.
func FromMap(m map[string]any) Widget {
	var w Widget
	if s, ok := m["type"].(string); ok {
		w.Type = Type(s)
	}
	w.Payload = newPayload(w.Type)

	extra := make(map[string]any)
	for k, v := range m {
		if w.setBase(k, v) {
			continue
		}
		if w.Payload != nil && setPayloadField(w.Payload, k, v) {
			continue
		}
		extra[k] = v
	}
	if len(extra) > 0 {
		w.Extra = extra
	}
	return w
}

func (w *Widget) setBase(key string, v any) bool {
	switch key {
	case "id":
		s, ok := v.(string)
		w.ID = s
		return ok
	case "type":
		_, ok := v.(string)
		return ok
	case "x":
		return setFloat(&w.X, v)
	case "y":
		return setFloat(&w.Y, v)
	case "width":
		return setFloat(&w.Width, v)
	case "height":
		return setFloat(&w.Height, v)
	}
	return false
}

func (w Widget) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.ToMap())
}

func (w *Widget) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*w = FromMap(m)
	return nil
}

// Merge returns w with the keys of partial shallow-merged over it. The id
// and type keys are ignored; an empty partial returns w unchanged.
func (w Widget) Merge(partial map[string]any) Widget {
	if len(partial) == 0 {
		return w
	}
	m := w.ToMap()
	for k, v := range partial {
		if k == "id" || k == "type" {
			continue
		}
		m[k] = v
	}
	return FromMap(m)
}

func payloadFields(p Payload) map[string]any {
	v := reflect.ValueOf(p).Elem()
	t := v.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := v.Field(i)
		if f.IsNil() {
			continue
		}
		out[jsonName(t.Field(i))] = f.Elem().Interface()
	}
	return out
}

func setPayloadField(p Payload, key string, val any) bool {
	v := reflect.ValueOf(p).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if jsonName(t.Field(i)) != key {
			continue
		}
		field := v.Field(i)
		switch field.Type().Elem().Kind() {
		case reflect.String:
			s, ok := val.(string)
			if !ok {
				return false
			}
			field.Set(reflect.ValueOf(&s))
		case reflect.Float64:
			f, ok := toFloat(val)
			if !ok {
				return false
			}
			field.Set(reflect.ValueOf(&f))
		case reflect.Bool:
			b, ok := val.(bool)
			if !ok {
				return false
			}
			field.Set(reflect.ValueOf(&b))
		default:
			return false
		}
		return true
	}
	return false
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return f.Name
}

func setFloat(dst *float64, v any) bool {
	f, ok := toFloat(v)
	if ok {
		*dst = f
	}
	return ok
}

// toFloat accepts the numeric shapes produced by the JSON, BSON and
// Firestore decoders.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ToMaps converts widgets to their stored form, preserving order.
func ToMaps(widgets []Widget) []map[string]any {
	out := make([]map[string]any, 0, len(widgets))
	for _, w := range widgets {
		out = append(out, w.ToMap())
	}
	return out
}

// FromList decodes a stored widget array. Entries that are not records are
// skipped.
func FromList(items []any) []Widget {
	out := make([]Widget, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, FromMap(m))
		}
	}
	return out
}
