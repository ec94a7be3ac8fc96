package models

// MConfig Structure
type MConfig struct {
	Name      string         `yaml:"name" json:"name"`
	Host      string         `yaml:"host" json:"host"`
	Port      int            `yaml:"port" json:"port"`
	LogLevel  string         `yaml:"log_level" json:"log_level"`
	LogFormat string         `yaml:"log_format" json:"log_format"` // "console" or "json"
	GrpcHost  string         `yaml:"grpc_host" json:"grpc_host"`
	GrpcPort  int            `yaml:"grpc_port" json:"grpc_port"`
	Storage   MStorageConfig `yaml:"storage" json:"storage"`
	Catalog   MCatalogConfig `yaml:"catalog" json:"catalog"`
	Network   MNetworkConfig `yaml:"network" json:"network"`
	Session   MSessionConfig `yaml:"session" json:"session"`
	Charges   MChargeRates   `yaml:"charges" json:"charges"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type" json:"db_type"` // "sqlite" or "postgres"
	DBPath             string `yaml:"db_path" json:"db_path"`
	DBConnectionString string `yaml:"db_connection_string" json:"-"`
	DraftRetentionDays int    `yaml:"draft_retention_days" json:"draft_retention_days"`
	RetentionSchedule  string `yaml:"retention_schedule" json:"retention_schedule"`
}

type MCatalogConfig struct {
	Type     string `yaml:"type" json:"type"` // "file" or "gateway"
	Path     string `yaml:"path" json:"path"`
	BaseURL  string `yaml:"base_url" json:"base_url"`
	APIKey   string `yaml:"api_key" json:"-"` // Optional
	Exchange string `yaml:"exchange" json:"exchange"`
}

type MNetworkConfig struct {
	RequestTimeout int `yaml:"timeout" json:"timeout"`
	MaxRetries     int `yaml:"retries" json:"retries"`
}

type MSessionConfig struct {
	TTLMinutes                int    `yaml:"ttl_minutes" json:"ttl_minutes"`
	SweepSchedule             string `yaml:"sweep_schedule" json:"sweep_schedule"`
	EnforceSubscriptionWindow bool   `yaml:"enforce_subscription_window" json:"enforce_subscription_window"`
}

// MChargeRates are the statutory and fee rates applied to the total investment.
// GST applies to brokerage, not to the investment.
type MChargeRates struct {
	Brokerage string `yaml:"brokerage" json:"brokerage"`
	STT       string `yaml:"stt" json:"stt"`
	GST       string `yaml:"gst" json:"gst"`
	SEBI      string `yaml:"sebi" json:"sebi"`
	StampDuty string `yaml:"stamp_duty" json:"stamp_duty"`
}
