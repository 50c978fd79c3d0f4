package envconf

import (
	"encoding"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingRequired = errors.New("missing required environment variable")
	ErrUnsupportedType = errors.New("unsupported field type")
	ErrInvalidConfig   = errors.New("invalid configuration")
)

// Validator is implemented by config groups that check their own values.
// Load calls Validate on every struct it fills, innermost first.
type Validator interface {
	Validate() error
}

var durationType = reflect.TypeOf(time.Duration(0))

// Load fills the exported fields of the struct pointed to by dst from the
// environment. A field is bound with `env:"NAME"`; when NAME is unset the
// value of `envDefault:"..."` is used, and a field without a default is
// required. Untagged struct fields are loaded recursively.
//
// All missing variables are reported together. Parse errors stop the load.
func Load(dst any) error {
	if dst == nil {
		return errors.New("destination is nil")
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return errors.New("destination must be a non-nil pointer to a struct")
	}

	if v.Elem().Kind() != reflect.Struct {
		return errors.New("destination must point to a struct")
	}

	return loadStruct(v, "")
}

// loadStruct fills the struct behind ptr. path prefixes field names in errors.
//
//nolint:gocognit
func loadStruct(ptr reflect.Value, path string) error {
	v := ptr.Elem()
	t := v.Type()

	var missing []error

	for i := range v.NumField() {
		sf := t.Field(i)
		fv := v.Field(i)

		if !sf.IsExported() {
			continue
		}

		name := path + sf.Name
		tag := sf.Tag.Get("env")

		if tag == "-" {
			continue
		}

		if tag == "" {
			var err error

			switch {
			case fv.Kind() == reflect.Struct && sf.Type != durationType:
				err = loadStruct(fv.Addr(), name+".")
			case fv.Kind() == reflect.Pointer && fv.Type().Elem().Kind() == reflect.Struct:
				if fv.IsNil() {
					fv.Set(reflect.New(fv.Type().Elem()))
				}

				err = loadStruct(fv, name+".")
			default:
				continue
			}

			if errors.Is(err, ErrMissingRequired) {
				missing = append(missing, err)
				continue
			}

			if err != nil {
				return err
			}

			continue
		}

		raw, ok := os.LookupEnv(tag)
		if !ok {
			raw, ok = sf.Tag.Lookup("envDefault")
			if !ok {
				missing = append(missing, fmt.Errorf("%w: %s (field %q)", ErrMissingRequired, tag, name))
				continue
			}
		}

		err := setValue(fv, raw)
		if err != nil {
			return fmt.Errorf("parse %s for field %q: %w", tag, name, err)
		}
	}

	if len(missing) > 0 {
		return errors.Join(missing...)
	}

	if val, ok := ptr.Interface().(Validator); ok {
		err := val.Validate()
		if err != nil {
			group := strings.TrimSuffix(path, ".")
			if group == "" {
				group = t.Name()
			}

			return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, group, err)
		}
	}

	return nil
}

//nolint:gocognit,cyclop
func setValue(fv reflect.Value, raw string) error {
	if !fv.CanSet() {
		return fmt.Errorf("field not settable: %w", ErrUnsupportedType)
	}

	// encoding.TextUnmarshaler support
	if fv.CanAddr() {
		u, ok := fv.Addr().Interface().(encoding.TextUnmarshaler)
		if ok {
			err := u.UnmarshalText([]byte(raw))
			if err != nil {
				return fmt.Errorf("unmarshal text: %w", err)
			}

			return nil
		}
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)

		return nil
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("parse bool: %w", err)
		}

		fv.SetBool(b)

		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if fv.Type() == durationType {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return fmt.Errorf("parse duration: %w", err)
			}

			fv.SetInt(int64(d))

			return nil
		}

		i, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return fmt.Errorf("parse int: %w", err)
		}

		fv.SetInt(i)

		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(raw, 10, fv.Type().Bits())
		if err != nil {
			return fmt.Errorf("parse uint: %w", err)
		}

		fv.SetUint(u)

		return nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, fv.Type().Bits())
		if err != nil {
			return fmt.Errorf("parse float: %w", err)
		}

		fv.SetFloat(f)

		return nil
	case reflect.Pointer:
		if fv.IsNil() {
			elem := reflect.New(fv.Type().Elem())

			err := setValue(elem.Elem(), raw)
			if err != nil {
				return fmt.Errorf("parse pointer: %w", err)
			}

			fv.Set(elem)

			return nil
		}

		err := setValue(fv.Elem(), raw)
		if err != nil {
			return fmt.Errorf("parse pointer: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("unsupported type: %w", ErrUnsupportedType)
	}
}
