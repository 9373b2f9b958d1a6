package config

// Config is the root configuration structure for the recog CLI.
type Config struct {
	Log       LogConfig       `description:"Logging configuration" koanf:"log"`
	Databases DatabasesConfig `description:"Fingerprint database configuration" koanf:"databases"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level" koanf:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic"`
	Format string `description:"Log format: json | text" koanf:"format" validate:"omitempty,oneof=json text"`
}

// DatabasesConfig holds configuration for locating and parsing fingerprint
// databases.
type DatabasesConfig struct {
	// Dir is the directory scanned for *.xml database documents.
	Dir string `description:"Fingerprint database directory" koanf:"dir"`
	// Strict aborts a parse on the first malformed fingerprint instead of
	// skipping it.
	Strict bool `description:"Fail on malformed fingerprints instead of skipping them" koanf:"strict"`
	// Engine selects the regex backend used to compile patterns.
	Engine string `description:"Regex engine: regexp2 | go" koanf:"engine" validate:"oneof=regexp2 go"`
}
