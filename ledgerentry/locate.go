package ledgerentry

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/kennyzlei/rippled/ledger"
)

// Location is the outcome of classifying and validating a request. Key is
// zero whenever Locate returns an error.
type Location struct {
	Variant  Variant
	Expected ledger.EntryType
	Key      ledger.Key
}

// Locate classifies the request document params, validates the selected
// shape and derives the key of the object it names.
//
// Request errors are *Error values. Structural errors are *Error with kind
// invalidParams when apiVersion is 2 or later, and ErrStructural otherwise.
func Locate(params []byte, apiVersion uint) (Location, error) {
	req, err := parseRequest(params)
	if err != nil {
		return Location{}, versionPolicy(err, apiVersion)
	}
	loc, err := locate(req)
	return loc, versionPolicy(err, apiVersion)
}

func parseRequest(params []byte) (field, error) {
	if !gjson.ValidBytes(params) {
		return field{}, structural("request is not valid JSON")
	}
	r := gjson.ParseBytes(params)
	if !r.IsObject() {
		return field{}, structural("request must be an object")
	}
	return field{r: r}, nil
}

func locate(req field) (Location, error) {
	l, ok := classify(req)
	if !ok {
		k, ok, err := legacyPositional(req)
		if !ok {
			return Location{Variant: Unrecognized}, errNoShape
		}
		loc := Location{Variant: LegacyPositional, Expected: ledger.TypeAny}
		if err != nil {
			return loc, err
		}
		loc.Key = k
		return loc, nil
	}

	loc := Location{Variant: l.variant, Expected: l.expected}
	k, err := l.derive(req, req.get(l.field))
	if err != nil {
		return loc, err
	}
	if k.IsZero() {
		return loc, malformed("%s produced no key", l.field)
	}
	loc.Key = k
	return loc, nil
}

// versionPolicy is the only place the negotiated API version changes an
// outcome: the kind reported for an unrecognized shape, and whether a
// structural error is reported or propagated.
func versionPolicy(err error, apiVersion uint) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errNoShape):
		if apiVersion < 2 {
			return newError(KindUnknownOption, "no recognized ledger entry field")
		}
		return newError(KindInvalidParams, "no recognized ledger entry field")
	case errors.Is(err, ErrStructural):
		if apiVersion > 1 {
			return wrapError(KindInvalidParams, err, "%v", err)
		}
		return err
	}
	return err
}

// binaryFlag reads the optional "binary" flag by truthiness: false, null,
// zero, "" and empty containers are false.
func binaryFlag(req field) bool {
	b := req.get(fieldBinary)
	switch b.r.Type {
	case gjson.True:
		return true
	case gjson.Number:
		return b.r.Num != 0
	case gjson.String:
		return b.r.Str != ""
	case gjson.JSON:
		if b.isArray() {
			return len(b.r.Array()) > 0
		}
		return len(b.r.Map()) > 0
	}
	return false
}
