// pkg/config/types.go
package config

import "time"

// Config is the root configuration structure for busmock.
type Config struct {
	Log         LogConfig         `description:"Logging configuration" koanf:"log"`
	Server      ServerConfig      `description:"Server configuration" koanf:"server"`
	Bus         BusConfig         `description:"Emulated bus identity" koanf:"bus"`
	Retry       RetryConfig       `description:"Handler retry policy" koanf:"retry"`
	Definitions DefinitionsConfig `description:"Definitions file" koanf:"definitions"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level (debug, info, warn, error)" koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `description:"Log format: json | text" koanf:"format" validate:"oneof=json text"`
}

// ServerConfig holds configuration for the emulator's HTTP ingress and queue.
// Used by 'busmock server start'.
type ServerConfig struct {
	Addr string `description:"Server listen address" koanf:"addr" validate:"required"`
	Port int    `description:"Server listen port" koanf:"port" validate:"min=1,max=65535"`

	// PayloadLimit is a human readable size, e.g. "10mb".
	PayloadLimit string `description:"Maximum PutEvents body size" koanf:"payload_limit" validate:"required"`

	QueueSize   int `description:"Buffered PutEvents batches" koanf:"queue_size" validate:"min=1"`
	Concurrency int `description:"Number of dispatch workers" koanf:"concurrency" validate:"min=1,max=1000"`

	// SyncDispatch makes PutEvents wait for handlers and report real outcomes.
	SyncDispatch bool `description:"Dispatch inline and report handler failures" koanf:"sync_dispatch"`

	StateDir string `description:"Directory holding the instance lock" koanf:"state_dir"`

	ReadTimeout     time.Duration `description:"HTTP read timeout" koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `description:"HTTP write timeout" koanf:"write_timeout" validate:"gte=0"`
	InvokeTimeout   time.Duration `description:"Default timeout for HTTP handlers" koanf:"invoke_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `description:"Graceful shutdown timeout" koanf:"shutdown_timeout" validate:"gte=0"`
}

// BusConfig holds the identity stamped on envelopes.
type BusConfig struct {
	// Name, when set, is assigned to entries that omit EventBusName. Left
	// empty, such entries skip the bus check of every subscription.
	Name    string `description:"Bus name for entries without one" koanf:"name"`
	Account string `description:"Account id in envelopes" koanf:"account" validate:"required"`
	Region  string `description:"Region in envelopes" koanf:"region" validate:"required"`
	// Imported maps Fn::ImportValue export names to bus names.
	Imported map[string]string `description:"Imported event buses" koanf:"imported"`
}

// RetryConfig is the handler retry policy.
type RetryConfig struct {
	MaxAttempts    int           `description:"Total invocation attempts per handler" koanf:"max_attempts" validate:"min=1"`
	Delay          time.Duration `description:"Fixed delay between attempts" koanf:"delay" validate:"gte=0"`
	ThrowExhausted bool          `description:"Surface retry exhaustion to the caller" koanf:"throw_exhausted"`
}

// DefinitionsConfig points at the functions/events file.
type DefinitionsConfig struct {
	Path string `description:"Definitions file path" koanf:"path" validate:"required"`
}
