package ledgerentry

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// field is a read-only probe into one value of the request document.
//
// Probes never fail. Conversions that can (str, uint32) return a structural
// error instead of guessing.
type field struct {
	r gjson.Result
}

func (f field) exists() bool   { return f.r.Exists() }
func (f field) isNull() bool   { return f.r.Type == gjson.Null }
func (f field) isString() bool { return f.r.Type == gjson.String }
func (f field) isObject() bool { return f.r.IsObject() }
func (f field) isArray() bool  { return f.r.IsArray() }

// get returns the member named name. When a name repeats, the last
// occurrence wins.
func (f field) get(name string) field {
	if !f.isObject() {
		return field{}
	}
	var out field
	f.r.ForEach(func(k, v gjson.Result) bool {
		if k.Str == name {
			out = field{r: v}
		}
		return true
	})
	return out
}

// has reports whether the member is present, null included.
func (f field) has(name string) bool { return f.get(name).exists() }

func (f field) len() int {
	if !f.isArray() {
		return 0
	}
	return len(f.r.Array())
}

func (f field) at(i int) field {
	arr := f.r.Array()
	if !f.isArray() || i < 0 || i >= len(arr) {
		return field{}
	}
	return field{r: arr[i]}
}

// isIntegral is true for booleans and for numbers written without a
// fraction or exponent that fit in 64 bits.
func (f field) isIntegral() bool {
	switch f.r.Type {
	case gjson.True, gjson.False:
		return true
	case gjson.Number:
		_, _, ok := integer(f.r.Raw)
		return ok
	}
	return false
}

// integer parses an integer literal as either a signed or an unsigned
// 64-bit value.
func integer(raw string) (neg bool, mag uint64, ok bool) {
	if raw == "" || strings.ContainsAny(raw, ".eE") {
		return false, 0, false
	}
	if raw[0] == '-' {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return false, 0, false
		}
		if v < 0 {
			return true, uint64(-(v + 1)) + 1, true
		}
		return false, uint64(v), true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return false, 0, false
	}
	return false, v, true
}

// str converts a scalar to its string form: strings as-is, null as "",
// booleans as "true"/"false", numbers as written. Objects and arrays have no
// string form.
func (f field) str() (string, error) {
	switch f.r.Type {
	case gjson.String:
		return f.r.Str, nil
	case gjson.Null:
		return "", nil
	case gjson.True:
		return "true", nil
	case gjson.False:
		return "false", nil
	case gjson.Number:
		return f.r.Raw, nil
	}
	return "", structural("expected a scalar, got %s", kindName(f))
}

// uint32 converts an integral value. Booleans are 0 or 1; negative or
// oversized numbers are structural errors.
func (f field) uint32() (uint32, error) {
	switch f.r.Type {
	case gjson.True:
		return 1, nil
	case gjson.False, gjson.Null:
		return 0, nil
	case gjson.Number:
		neg, mag, ok := integer(f.r.Raw)
		if !ok {
			// fractional values truncate when in range
			v := f.r.Num
			if v < 0 || v > math.MaxUint32 {
				return 0, structural("%s is out of unsigned range", f.r.Raw)
			}
			return uint32(v), nil
		}
		if neg {
			return 0, structural("%s is negative", f.r.Raw)
		}
		if mag > math.MaxUint32 {
			return 0, structural("%s does not fit in 32 bits", f.r.Raw)
		}
		return uint32(mag), nil
	case gjson.String:
		return 0, structural("%q is not an unsigned integer", f.r.Str)
	}
	return 0, structural("expected an unsigned integer, got %s", kindName(f))
}

func kindName(f field) string {
	switch {
	case f.isObject():
		return "object"
	case f.isArray():
		return "array"
	case !f.exists():
		return "nothing"
	}
	return f.r.Type.String()
}
