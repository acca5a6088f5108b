package importer

import (
	"image/color"

	"github.com/jamesrr39/glstyle-bridge/styling"
	"github.com/jamesrr39/glstyle-bridge/styling/mapboxglstyle"
	"github.com/jamesrr39/goutil/errorsx"
)

// stopReader reads paint properties for one class of a renderer: the value of stop `index` when a property is
// a stop function, or the plain value when it is a scalar. An index of -1 reads a single symbol style.
type stopReader struct {
	paint mapboxglstyle.Properties
	index int
}

// value returns nil when the property isn't set
func (r stopReader) value(name string) (interface{}, errorsx.Error) {
	switch v := r.paint[name].(type) {
	case nil:
		return nil, nil
	case mapboxglstyle.ScalarValue:
		return v.Value, nil
	case *mapboxglstyle.StopFunction:
		if r.index < 0 {
			return nil, errorsx.Errorf("property %q is a stop function, but the style layer's main property is not", name)
		}
		if r.index >= len(v.Stops) {
			return nil, errorsx.Wrap(ErrMisalignedStops, "property", name, "index", r.index, "stop count", len(v.Stops))
		}
		return v.Stops[r.index].Value, nil
	default:
		return nil, errorsx.Errorf("unexpected value for property %q: %T", name, v)
	}
}

func (r stopReader) string(name string) (string, errorsx.Error) {
	val, err := r.value(name)
	if err != nil {
		return "", err
	}

	switch v := val.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", errorsx.Errorf("expected property %q to be a string, but it was %T", name, val)
	}
}

func (r stopReader) color(name string) (color.RGBA, errorsx.Error) {
	s, err := r.string(name)
	if err != nil {
		return color.RGBA{}, err
	}

	if s == "" {
		return color.RGBA{0, 0, 0, 0xff}, nil
	}

	c, err := styling.ParseRGBString(s)
	if err != nil {
		return color.RGBA{}, errorsx.Wrap(err, "property", name)
	}
	return c, nil
}

func (r stopReader) float(name string, defaultVal float64) (float64, errorsx.Error) {
	val, err := r.value(name)
	if err != nil {
		return 0, err
	}

	if val == nil {
		return defaultVal, nil
	}

	f, ok := mapboxglstyle.ToFloat(val)
	if !ok {
		return 0, errorsx.Errorf("expected property %q to be a number, but it was %v", name, val)
	}
	return f, nil
}

// floats accepts an array, a single number or a comma separated string
func (r stopReader) floats(name string) ([]float64, errorsx.Error) {
	val, err := r.value(name)
	if err != nil {
		return nil, err
	}

	if val == nil {
		return nil, nil
	}

	floats, ok := mapboxglstyle.ToFloatSlice(val)
	if !ok {
		return nil, errorsx.Errorf("expected property %q to be a list of numbers, but it was %v", name, val)
	}
	return floats, nil
}
