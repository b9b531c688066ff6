package lightgbm

import (
	"fmt"
	"math"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/golgbm/pkg/errors"
)

// DefaultNumIterations is used when num_iterations is absent or nil.
const DefaultNumIterations = 100

// Params maps LightGBM parameter names to values.
//
// Encoding to the native "k1=v1 k2=v2" form does not quote or escape
// anything: a value containing whitespace produces a string the native parser
// will split. This is a limitation of the native format.
type Params map[string]any

// String encodes p into the native configuration string. Keys appear in
// sorted order and nil values are skipped.
func (p Params) String() string {
	keys := make([]string, 0, len(p))
	for k, v := range p {
		if v == nil {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + formatValue(p[k])
	}
	return strings.Join(parts, " ")
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(x).Int(), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(x).Uint(), 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case fmt.Stringer:
		return x.String()
	}

	// Lists such as categorical_feature are comma separated.
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = formatValue(rv.Index(i).Interface())
		}
		return strings.Join(items, ",")
	}
	return fmt.Sprint(v)
}

// NumIterations returns the number of boosting rounds requested by p.
//
// Integers, integral floats and numeric strings are accepted. Absent or nil
// means DefaultNumIterations.
func (p Params) NumIterations() (int, error) {
	v, ok := p["num_iterations"]
	if !ok || v == nil {
		return DefaultNumIterations, nil
	}
	if _, isBool := v.(bool); isBool {
		return 0, errors.NewValidationError("num_iterations", "must be numeric", v)
	}

	var n float64
	if err := mapstructure.WeakDecode(v, &n); err != nil {
		return 0, errors.NewValidationError("num_iterations", "must be numeric", v)
	}
	if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
		return 0, errors.NewValidationError("num_iterations", "must be an integer", v)
	}
	return int(n), nil
}

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// With returns a copy of p with key set to value.
func (p Params) With(key string, value any) Params {
	out := p.Clone()
	out[key] = value
	return out
}

// ParseParams builds Params from "key=value" strings, as given on a command
// line. Values are kept as strings.
func ParseParams(pairs []string) (Params, error) {
	p := make(Params, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.NewValidationError("params", "expected key=value", pair)
		}
		p[k] = strings.TrimSpace(v)
	}
	return p, nil
}

// LoadParams reads Params from a YAML (or JSON) file holding a flat mapping.
func LoadParams(path string) (Params, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read params file %s", path)
	}

	var p Params
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, errors.Wrapf(err, "parse params file %s", path)
	}
	if p == nil {
		p = Params{}
	}
	for k, v := range p {
		if nested(v) {
			return nil, errors.NewValidationError(k, "nested values are not supported", v)
		}
	}
	return p, nil
}

// nested reports whether v is a mapping or a list holding one. yaml.v3 may
// decode a mapping into Params itself, so the check goes by kind.
func nested(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return true
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if nested(rv.Index(i).Interface()) {
				return true
			}
		}
	}
	return false
}
