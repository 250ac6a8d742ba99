// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"

	"github.com/thriftline/thriftline/config"
	"github.com/thriftline/thriftline/pkg/validate"
)

// maxBodyBytes returns the configured request body size limit (default 4 MB).
func maxBodyBytes() int64 {
	n, err := strconv.ParseInt(config.Get("MAX_BODY_BYTES", "4194304"), 10, 64)
	if err != nil || n <= 0 {
		return 4 << 20 // 4 MB
	}
	return n
}

// JSON decodes r.Body as JSON into dest and runs validation.
// The body is capped at MAX_BODY_BYTES to prevent memory exhaustion.
// Returns (errs, nil) when there are validation failures.
// Returns (nil, err) when the body is malformed JSON or too large.
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	dec := json.NewDecoder(r.Body)
	if err = dec.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}

	return nil, nil
}

// Form populates dest from an already-parsed multipart or urlencoded form.
// Fields are matched by json tag; string, float64, and uint fields are
// supported. Unlike JSON, Form does not run validate.Struct: multipart
// requests usually carry file parts whose derived fields (image references)
// must be attached by the caller before validating.
func Form(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("bind: dest must be a pointer to struct")
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		name := jsonName(field)
		if name == "" {
			continue
		}

		raw := r.FormValue(name)
		if raw == "" {
			continue
		}

		fv := rv.Field(i)
		switch fv.Kind() {
		case reflect.String:
			fv.SetString(raw)
		case reflect.Float64, reflect.Float32:
			f, perr := strconv.ParseFloat(raw, 64)
			if perr != nil {
				if errs == nil {
					errs = map[string]string{}
				}
				errs[name] = fmt.Sprintf("The %s field must be a number.", name)
				continue
			}
			fv.SetFloat(f)
		case reflect.Uint, reflect.Uint64, reflect.Uint32:
			u, perr := strconv.ParseUint(raw, 10, 64)
			if perr != nil {
				if errs == nil {
					errs = map[string]string{}
				}
				errs[name] = fmt.Sprintf("The %s field must be an integer.", name)
				continue
			}
			fv.SetUint(u)
		}
	}

	if len(errs) > 0 {
		return errs, nil
	}

	return nil, nil
}

func jsonName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if name == "" || name == "-" {
		return ""
	}
	if idx := len(name); idx > 0 {
		for i, c := range name {
			if c == ',' {
				return name[:i]
			}
		}
	}
	return name
}
