package cfgplot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FloatList is a list of floats given as comma-separated text. It is used
// both for explicit bin edges in the configuration and as a pflag.Value on
// the command line. The first Set replaces any default; later Sets append.
type FloatList struct {
	Array   []float64
	beenSet bool
}

// ParseFloatList parses a comma-separated list such as "0, 1.5, 10".
func ParseFloatList(s string) ([]float64, error) {
	var f FloatList
	if err := f.Set(s); err != nil {
		return nil, err
	}
	return f.Array, nil
}

func (f *FloatList) Set(valueStr string) error {
	var values []float64
	for _, item := range strings.Split(valueStr, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			return fmt.Errorf("empty value in list %q", valueStr)
		}
		value, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return err
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("non-finite value %q in list", item)
		}
		values = append(values, value)
	}

	if !f.beenSet {
		f.beenSet = true
		f.Array = nil
	}

	f.Array = append(f.Array, values...)
	return nil
}

func (f *FloatList) String() string {
	items := make([]string, len(f.Array))
	for i, v := range f.Array {
		items[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(items, ",")
}

func (f *FloatList) Type() string {
	return "floats"
}
