package mapboxglstyle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jamesrr39/goutil/errorsx"
)

type FunctionType string

const (
	FunctionTypeCategorical FunctionType = "categorical"
	FunctionTypeInterval    FunctionType = "interval"
)

// PropertyValue is either a ScalarValue or a *StopFunction
type PropertyValue interface {
	isPropertyValue()
}

type ScalarValue struct {
	Value interface{}
}

func (ScalarValue) isPropertyValue() {}

func (v ScalarValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Value)
}

// Stop is one [key, value] pair of a stop function. On the wire it is a 2 element array.
type Stop struct {
	Key   interface{}
	Value interface{}
}

func (s Stop) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{s.Key, s.Value})
}

func (s *Stop) UnmarshalJSON(b []byte) error {
	var pair []interface{}
	err := json.Unmarshal(b, &pair)
	if err != nil {
		return err
	}

	if len(pair) != 2 {
		return fmt.Errorf("expected a stop to have 2 elements, but it had %d", len(pair))
	}

	s.Key = pair[0]
	s.Value = pair[1]
	return nil
}

// "line-color": {"property": "class", "type": "categorical", "stops": [["A", "rgb(255,0,0)"], ["B", "rgb(0,0,255)"]]}
type StopFunction struct {
	Property string       `json:"property"`
	Type     FunctionType `json:"type"`
	Stops    []Stop       `json:"stops"`
}

func (*StopFunction) isPropertyValue() {}

// ParsePropertyValue decides once, at the JSON boundary, whether a paint or layout property is a scalar or a stop function.
func ParsePropertyValue(raw json.RawMessage) (PropertyValue, errorsx.Error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var probe map[string]json.RawMessage
		err := json.Unmarshal(trimmed, &probe)
		if err != nil {
			return nil, errorsx.Wrap(err)
		}

		if _, ok := probe["stops"]; ok {
			fn := new(StopFunction)
			err = json.Unmarshal(trimmed, fn)
			if err != nil {
				return nil, errorsx.Wrap(err)
			}
			return fn, nil
		}
	}

	var value interface{}
	err := json.Unmarshal(trimmed, &value)
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return ScalarValue{value}, nil
}

// KeyString formats a stop key the way category and range labels are written: numbers without trailing zeros.
func KeyString(key interface{}) string {
	switch k := key.(type) {
	case string:
		return k
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64)
	case int:
		return strconv.Itoa(k)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", k)
	}
}

func ToFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// ToFloatSlice accepts a JSON array of numbers, a single number, or a "x,y" string
func ToFloatSlice(value interface{}) ([]float64, bool) {
	switch v := value.(type) {
	case []float64:
		return v, true
	case []interface{}:
		var floats []float64
		for _, item := range v {
			f, ok := ToFloat(item)
			if !ok {
				return nil, false
			}
			floats = append(floats, f)
		}
		return floats, true
	case string:
		var floats []float64
		for _, fragment := range strings.Split(v, ",") {
			f, err := strconv.ParseFloat(strings.TrimSpace(fragment), 64)
			if err != nil {
				return nil, false
			}
			floats = append(floats, f)
		}
		return floats, true
	default:
		f, ok := ToFloat(v)
		if !ok {
			return nil, false
		}
		return []float64{f}, true
	}
}
