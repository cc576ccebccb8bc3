package schema

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Validator checks attribute text before it is coerced.
type Validator interface {
	Validate(value string) error
}

// ValidationError reports a value rejected by a Validator.
type ValidationError struct {
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("'%s' %s", e.Value, e.Reason)
}

// ConvertText converts attribute text to a value of type ty, ignoring
// surrounding whitespace. Validators and the binder share it.
func ConvertText(text string, ty cty.Type) (cty.Value, error) {
	return convert.Convert(cty.StringVal(strings.TrimSpace(text)), ty)
}

// BoolValidator accepts the text that converts to a cty bool.
type BoolValidator struct{}

func (BoolValidator) Validate(v string) error {
	if _, err := ConvertText(v, cty.Bool); err != nil {
		return &ValidationError{Value: v, Reason: "is not a valid boolean value"}
	}
	return nil
}

// IntValidator accepts integers within [Min, Max].
type IntValidator struct {
	Min, Max int64
}

func (iv IntValidator) Validate(v string) error {
	var n int64
	val, err := ConvertText(v, cty.Number)
	if err == nil {
		err = gocty.FromCtyValue(val, &n)
	}
	if err != nil {
		return &ValidationError{Value: v, Reason: "is not a valid integer value"}
	}
	if n < iv.Min {
		return &ValidationError{Value: v, Reason: fmt.Sprintf("is less than the minimum of %d", iv.Min)}
	}
	if n > iv.Max {
		return &ValidationError{Value: v, Reason: fmt.Sprintf("is greater than the maximum of %d", iv.Max)}
	}
	return nil
}

// FloatValidator accepts numbers within [Min, Max].
type FloatValidator struct {
	Min, Max float64
}

func (fv FloatValidator) Validate(v string) error {
	var n float64
	val, err := ConvertText(v, cty.Number)
	if err == nil {
		err = gocty.FromCtyValue(val, &n)
	}
	if err != nil {
		return &ValidationError{Value: v, Reason: "is not a valid number"}
	}
	if n < fv.Min || n > fv.Max {
		return &ValidationError{Value: v, Reason: fmt.Sprintf("is outside the range %g to %g", fv.Min, fv.Max)}
	}
	return nil
}

// StringValidator checks emptiness and an optional pattern.
type StringValidator struct {
	NonEmpty bool
	Pattern  *regexp.Regexp
}

func (sv StringValidator) Validate(v string) error {
	if sv.NonEmpty && v == "" {
		return &ValidationError{Value: v, Reason: "is empty; a non-empty value is required"}
	}
	if sv.Pattern != nil && !sv.Pattern.MatchString(v) {
		return &ValidationError{Value: v, Reason: fmt.Sprintf("does not match the pattern %s", sv.Pattern)}
	}
	return nil
}

// DurationValidator accepts time.ParseDuration input.
type DurationValidator struct{}

func (DurationValidator) Validate(v string) error {
	if _, err := time.ParseDuration(v); err != nil {
		return &ValidationError{Value: v, Reason: "is not a valid duration"}
	}
	return nil
}

// parseValidators reads a validate tag: `int(min=0,max=10); string(nonempty)`.
func parseValidators(root reflect.Type, f reflect.StructField, raw string) []Validator {
	fail := func(format string, args ...any) {
		panic(fmt.Sprintf("schema: %s.%s: validate: %s", root, f.Name, fmt.Sprintf(format, args...)))
	}

	var out []Validator
	for _, item := range strings.Split(raw, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		name, args := item, ""
		if open := strings.IndexByte(item, '('); open >= 0 {
			if !strings.HasSuffix(item, ")") {
				fail("unbalanced parenthesis in %q", item)
			}
			name, args = item[:open], item[open+1:len(item)-1]
		}
		opts := parseArgs(args)

		switch name {
		case "bool":
			out = append(out, BoolValidator{})
		case "int":
			iv := IntValidator{Min: math.MinInt64, Max: math.MaxInt64}
			for k, v := range opts {
				n, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					fail("int %s=%q is not an integer", k, v)
				}
				switch k {
				case "min":
					iv.Min = n
				case "max":
					iv.Max = n
				default:
					fail("unknown int option %q", k)
				}
			}
			out = append(out, iv)
		case "float":
			fv := FloatValidator{Min: math.Inf(-1), Max: math.Inf(1)}
			for k, v := range opts {
				n, err := strconv.ParseFloat(v, 64)
				if err != nil {
					fail("float %s=%q is not a number", k, v)
				}
				switch k {
				case "min":
					fv.Min = n
				case "max":
					fv.Max = n
				default:
					fail("unknown float option %q", k)
				}
			}
			out = append(out, fv)
		case "string":
			var sv StringValidator
			for k, v := range opts {
				switch k {
				case "nonempty":
					sv.NonEmpty = true
				case "pattern":
					re, err := regexp.Compile(v)
					if err != nil {
						fail("bad pattern: %v", err)
					}
					sv.Pattern = re
				default:
					fail("unknown string option %q", k)
				}
			}
			out = append(out, sv)
		case "duration":
			out = append(out, DurationValidator{})
		default:
			fail("unknown validator %q", name)
		}
	}
	return out
}

// parseArgs splits "a=1,b,pattern=x,y" into options. A pattern option
// takes the remainder of the list so that it may contain commas.
func parseArgs(args string) map[string]string {
	out := map[string]string{}
	for args != "" {
		var item string
		if strings.HasPrefix(args, "pattern=") {
			item, args = args, ""
		} else {
			item, args, _ = strings.Cut(args, ",")
		}
		k, v, _ := strings.Cut(strings.TrimSpace(item), "=")
		out[k] = v
		args = strings.TrimSpace(args)
	}
	return out
}
