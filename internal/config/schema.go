package config

// Config is the top-level YAML structure.
type Config struct {
	Version string `yaml:"version"`
	// SourceService is stamped on every published event envelope.
	SourceService string     `yaml:"source_service"`
	Engine        EngineConf `yaml:"engine"`
	Kafka         KafkaConf  `yaml:"kafka"`
	// Destinations maps logical destination names to physical topics.
	// Unmapped destinations use their logical name as the topic.
	Destinations map[string]string `yaml:"destinations"`
	Bindings     []BindingConf     `yaml:"bindings"`
}

// EngineConf holds tunable concurrency and retry settings.
type EngineConf struct {
	StageWorkers     int `yaml:"stage_workers"`
	QueueDepth       int `yaml:"queue_depth"`
	PublishTimeoutMs int `yaml:"publish_timeout_ms"`
	MaxRetries       int `yaml:"max_retries"`
}

// KafkaConf selects the channel registry backend. Empty brokers means the
// in-memory registry.
type KafkaConf struct {
	Brokers       string `yaml:"brokers"`
	ConsumerGroup string `yaml:"consumer_group"`
}

// BindingConf maps a pipeline stage to its input and optional output
// destinations.
type BindingConf struct {
	Stage  string `yaml:"stage"`
	Input  string `yaml:"input"`
	Output string `yaml:"output,omitempty"`
}
