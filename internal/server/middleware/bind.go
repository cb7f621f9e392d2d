package middleware

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

// BindAndValidate binds body, params, query and `header` tagged fields, then
// validates the struct. Validation failures are 400s.
func BindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}

	if err := bindHeader(c.Request().Header, req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return nil
}

// bindHeader decodes headers into fields tagged `header:"<name>"`.
// dst must be a pointer to a struct.
func bindHeader(header http.Header, dst interface{}) error {
	ptr := reflect.ValueOf(dst)
	if ptr.Kind() != reflect.Ptr || ptr.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("bind header: want pointer to struct, got %T", dst)
	}

	indirect := ptr.Elem()
	structType := indirect.Type()
	for i := 0; i < structType.NumField(); i++ {
		structField := structType.Field(i)
		name := structField.Tag.Get("header")
		if name == "" || name == "-" {
			continue
		}
		raw := header.Get(name)
		if raw == "" {
			continue
		}
		if err := setField(indirect.Field(i), raw); err != nil {
			return fmt.Errorf("cannot parse %s.%s as %s from %q: %w",
				structType.Name(), structField.Name, structField.Type, raw, err)
		}
	}
	return nil
}

func setField(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := cast.ToInt64E(raw)
		if err != nil {
			return err
		}
		field.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := cast.ToUint64E(raw)
		if err != nil {
			return err
		}
		field.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := cast.ToFloat64E(raw)
		if err != nil {
			return err
		}
		field.SetFloat(v)
	case reflect.Bool:
		v, err := cast.ToBoolE(raw)
		if err != nil {
			return err
		}
		field.SetBool(v)
	default:
		return fmt.Errorf("unsupported kind %s", field.Kind())
	}
	return nil
}
