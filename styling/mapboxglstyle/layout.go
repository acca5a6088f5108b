package mapboxglstyle

import (
	"encoding/json"

	"github.com/jamesrr39/goutil/errorsx"
)

const (
	PropertyIconImage = "icon-image"

	PropertyLineWidth     = "line-width"
	PropertyLineOpacity   = "line-opacity"
	PropertyLineColor     = "line-color"
	PropertyLineOffset    = "line-offset"
	PropertyLineDashArray = "line-dasharray"

	PropertyFillColor        = "fill-color"
	PropertyFillOutlineColor = "fill-outline-color"
	PropertyFillPattern      = "fill-pattern"
	PropertyFillOpacity      = "fill-opacity"
	PropertyFillTranslate    = "fill-translate"

	PropertyTextField     = "text-field"
	PropertyTextSize      = "text-size"
	PropertyTextFont      = "text-font"
	PropertyTextRotate    = "text-rotate"
	PropertyTextOffset    = "text-offset"
	PropertyTextColor     = "text-color"
	PropertyTextHaloColor = "text-halo-color"
	PropertyTextHaloWidth = "text-halo-width"
	PropertyTextOpacity   = "text-opacity"
)

// Properties holds the paint or layout properties of a layer
type Properties map[string]PropertyValue

func (p *Properties) UnmarshalJSON(b []byte) error {
	var rawProperties map[string]json.RawMessage
	err := json.Unmarshal(b, &rawProperties)
	if err != nil {
		return err
	}

	properties := make(Properties)
	for name, raw := range rawProperties {
		value, err := ParsePropertyValue(raw)
		if err != nil {
			return errorsx.Wrap(err, "property", name)
		}
		properties[name] = value
	}

	*p = properties
	return nil
}

func (p Properties) Set(name string, value interface{}) {
	p[name] = ScalarValue{value}
}

// StopFunction returns the named property if it is a stop function
func (p Properties) StopFunction(name string) (*StopFunction, bool) {
	fn, ok := p[name].(*StopFunction)
	return fn, ok
}

// Scalar returns the raw value of the named property if it is a scalar
func (p Properties) Scalar(name string) (interface{}, bool) {
	v, ok := p[name].(ScalarValue)
	if !ok {
		return nil, false
	}
	return v.Value, true
}

func (p Properties) String(name string) (string, bool) {
	v, ok := p.Scalar(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (p Properties) Float(name string) (float64, bool) {
	v, ok := p.Scalar(name)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

func (p Properties) Has(name string) bool {
	_, ok := p[name]
	return ok
}
