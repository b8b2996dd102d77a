package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Binder turns a merged map into a typed struct (mapstructure, `config`
// tags, weak typing so "8080" binds to an int and "5s" to a Duration) and
// then validates it (validator/v10, `validate` tags).
type Binder struct {
	validator *validator.Validate
}

// BindError reports which stage failed: "decode" for malformed input,
// "validate" for values that violate a rule.
type BindError struct {
	Stage string
	Err   error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("config %s error: %v", e.Stage, e.Err)
}

func (e *BindError) Unwrap() error {
	return e.Err
}

// NewBinder returns a Binder that also checks the cross-field rules of Root.
func NewBinder() *Binder {
	v := validator.New()
	v.RegisterStructValidation(validateRoot, Root{})
	return &Binder{validator: v}
}

// validateRoot rejects a contributor id listed twice and an actuator base
// path that is not absolute.
func validateRoot(sl validator.StructLevel) {
	root := sl.Current().Interface().(Root)

	seen := make(map[string]bool, len(root.Contributors))
	for _, id := range root.Contributors {
		if seen[id] {
			sl.ReportError(root.Contributors, "contributors", "Contributors", "unique", id)
			break
		}
		seen[id] = true
	}

	if p := root.Actuator.BasePath; p != "" && !strings.HasPrefix(p, "/") {
		sl.ReportError(p, "basePath", "BasePath", "abspath", "")
	}
}

// Bind decodes source into target, a pointer to a struct, and validates
// the result. On a validate failure target is left populated.
func (b *Binder) Bind(source map[string]any, target any) error {
	if err := b.decode(source, target); err != nil {
		return &BindError{Stage: "decode", Err: err}
	}
	if err := b.validator.Struct(target); err != nil {
		return &BindError{Stage: "validate", Err: err}
	}
	return nil
}

func (b *Binder) decode(source map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		TagName: "config",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(source)
}
