package config

import (
	"fmt"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/validation"
)

// FlowConfig is the configuration consumed by flowkit pipelines.
type FlowConfig struct {
	Name        string          `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string          `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Logging     logger.Config   `yaml:"logging" mapstructure:"logging"`
	Scheduler   SchedulerConfig `yaml:"scheduler" mapstructure:"scheduler"`
	Mapper      MapperConfig    `yaml:"mapper" mapstructure:"mapper"`
	SQL         SQLConfig       `yaml:"sql" mapstructure:"sql"`
}

// SchedulerConfig configures graph evaluation.
type SchedulerConfig struct {
	// MaxParallel bounds concurrently running nodes per level. 1 keeps
	// evaluation serial in declaration order.
	MaxParallel int  `yaml:"max_parallel" mapstructure:"max_parallel" validate:"gte=0"`
	Tracing     bool `yaml:"tracing" mapstructure:"tracing"`
	Metrics     bool `yaml:"metrics" mapstructure:"metrics"`
	LogNodes    bool `yaml:"log_nodes" mapstructure:"log_nodes"`
}

// MapperConfig configures mapper defaults.
type MapperConfig struct {
	// SuppressCaught stops mappers from failing when catch-mode errors remain.
	SuppressCaught bool `yaml:"suppress_caught" mapstructure:"suppress_caught"`
}

// SQLConfig configures the engine behind SQL-backed subjects.
type SQLConfig struct {
	Driver          string `yaml:"driver" mapstructure:"driver" validate:"omitempty,oneof=sqlite postgres pgx mysql"`
	DSN             string `yaml:"dsn" mapstructure:"dsn" validate:"required_with=Driver"`
	MaxOpenConns    int    `yaml:"max_open_conns" mapstructure:"max_open_conns" validate:"gte=0"`
	ConnectAttempts int    `yaml:"connect_attempts" mapstructure:"connect_attempts" validate:"gte=0"`
}

// ApplyDefaults fills unset values.
func (c *FlowConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
	if c.Scheduler.MaxParallel == 0 {
		c.Scheduler.MaxParallel = 1
	}
	if c.SQL.Driver != "" {
		if c.SQL.MaxOpenConns == 0 {
			c.SQL.MaxOpenConns = 4
		}
		if c.SQL.ConnectAttempts == 0 {
			c.SQL.ConnectAttempts = 3
		}
	}
}

// Validate checks struct tags and nested logging settings.
func (c *FlowConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
