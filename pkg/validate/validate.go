// Package validate provides Laravel-inspired struct-tag validation.
//
// Supported rules (comma-separated in the `validate` tag):
//
//	required            field must not be zero/empty
//	nullable            if empty, skip all remaining rules for this field
//	email               valid email address
//	numeric             any number
//	integer             whole number
//	min=N               string: min char length | number: min value
//	max=N               string: max char length | number: max value
//	gt=N                number > N
//	gte=N               number >= N
//	lt=N                number < N
//	lte=N               number <= N
//	between=min,max     number or string length between min and max (inclusive)
//	in=a,b,c            value must be one of the listed items
//
// Example:
//
//	type Input struct {
//	    Name   string  `json:"name"   validate:"required,min=2,max=100"`
//	    Email  string  `json:"email"  validate:"required,email"`
//	    Type   string  `json:"type"   validate:"required,in=auction,donation"`
//	    Amount float64 `json:"amount" validate:"required,gt=0"`
//	}
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Struct checks every exported field of v that carries a `validate` tag and
// returns fieldName → message for the first failing rule of each field.
// An empty map means the input is valid.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		name := jsonName(field)
		value := rv.Field(i)
		rules := parseRules(tag)

		// nullable short-circuits everything when the field is empty.
		if containsRule(rules, "nullable") && isZero(value) {
			continue
		}

		for _, rule := range rules {
			if rule == "nullable" {
				continue
			}
			if msg := check(rule, name, value); msg != "" {
				errs[name] = msg
				break
			}
		}
	}
	return errs
}

// HasErrors reports whether the Struct result carries any failure.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

// check evaluates one rule against a field value, returning "" on success
// or the user-facing message on failure.
func check(rule, field string, v reflect.Value) string {
	key, param, _ := strings.Cut(rule, "=")
	raw := fmt.Sprintf("%v", v.Interface())

	switch key {
	case "required":
		if isZero(v) {
			return fmt.Sprintf("The %s field is required.", field)
		}
	case "email":
		if !emailRE.MatchString(raw) {
			return fmt.Sprintf("The %s must be a valid email address.", field)
		}
	case "numeric":
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return fmt.Sprintf("The %s field must be a number.", field)
		}
	case "integer":
		if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
			return fmt.Sprintf("The %s field must be an integer.", field)
		}
	case "min":
		if isNumeric(v) {
			if asFloat(v) < bound(param) {
				return fmt.Sprintf("The %s must be at least %s.", field, param)
			}
		} else if runeLen(raw) < bound(param) {
			return fmt.Sprintf("The %s must be at least %s characters.", field, param)
		}
	case "max":
		if isNumeric(v) {
			if asFloat(v) > bound(param) {
				return fmt.Sprintf("The %s must not be greater than %s.", field, param)
			}
		} else if runeLen(raw) > bound(param) {
			return fmt.Sprintf("The %s must not exceed %s characters.", field, param)
		}
	case "gt":
		if asFloat(v) <= bound(param) {
			return fmt.Sprintf("The %s must be greater than %s.", field, param)
		}
	case "gte":
		if asFloat(v) < bound(param) {
			return fmt.Sprintf("The %s must be greater than or equal to %s.", field, param)
		}
	case "lt":
		if asFloat(v) >= bound(param) {
			return fmt.Sprintf("The %s must be less than %s.", field, param)
		}
	case "lte":
		if asFloat(v) > bound(param) {
			return fmt.Sprintf("The %s must be less than or equal to %s.", field, param)
		}
	case "between":
		return checkBetween(param, field, raw, v)
	case "in":
		for _, allowed := range strings.Split(param, ",") {
			if raw == strings.TrimSpace(allowed) {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", field)
	}
	return ""
}

func checkBetween(param, field, raw string, v reflect.Value) string {
	parts := strings.SplitN(param, ",", 2)
	if len(parts) != 2 {
		return ""
	}
	lo, hi := bound(parts[0]), bound(parts[1])
	if isNumeric(v) {
		if f := asFloat(v); f < lo || f > hi {
			return fmt.Sprintf("The %s must be between %s and %s.", field, parts[0], parts[1])
		}
		return ""
	}
	if l := runeLen(raw); l < lo || l > hi {
		return fmt.Sprintf("The %s must be between %s and %s characters.", field, parts[0], parts[1])
	}
	return ""
}

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// isZero is the "empty" notion the required and nullable rules share.
// A false bool is deliberately not empty.
func isZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	}
	return false
}

func isNumeric(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func asFloat(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	f, _ := strconv.ParseFloat(fmt.Sprintf("%v", v.Interface()), 64)
	return f
}

func runeLen(s string) float64 { return float64(len([]rune(s))) }

func bound(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func jsonName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	return name
}

// ruleKeywords is every token that can start a rule; parseRules uses it to
// tell a new rule apart from the continuation of a multi-value parameter.
var ruleKeywords = []string{
	"required", "nullable", "email", "numeric", "integer",
	"min=", "max=", "gt=", "gte=", "lt=", "lte=",
	"in=", "between=",
}

func startsRule(s string) bool {
	for _, k := range ruleKeywords {
		if strings.HasPrefix(s, k) {
			return true
		}
	}
	return false
}

// parseRules splits the tag on commas, then folds back the tokens that
// belong to a multi-value parameter of the previous rule:
//
//	"required,in=auction,donation,max=100"
//	→ ["required", "in=auction,donation", "max=100"]
func parseRules(tag string) []string {
	tokens := strings.Split(tag, ",")
	var rules []string
	for _, tok := range tokens {
		if len(rules) > 0 && !startsRule(tok) {
			rules[len(rules)-1] += "," + tok
			continue
		}
		rules = append(rules, tok)
	}
	return rules
}

func containsRule(rules []string, target string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == target {
			return true
		}
	}
	return false
}
