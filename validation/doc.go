// Package validation provides validation helpers for flowkit configuration
// and declarations.
//
// Struct tag validation uses the go-playground validator and is applied to
// configuration structs:
//
//	type SchedulerConfig struct {
//	    MaxParallel int `mapstructure:"max_parallel" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// Programmatic validation collects errors for names declared at runtime:
//
//	v := validation.New()
//	v.Required("pipe", name).Identifier("pipe", name)
//	err := v.Validate()
package validation
