package serverconfig

import "time"

type Config struct {
	MySQL      MySQLConfig      `yaml:"mysql" mapstructure:"mysql"`
	MongoDB    MongoDBConfig    `yaml:"mongodb" mapstructure:"mongodb"`
	LevelDB    LevelDBConfig    `yaml:"leveldb" mapstructure:"leveldb"`
	HTTPServer HTTPServerConfig `yaml:"httpserver" mapstructure:"httpserver"`
	Worker     WorkerConfig     `yaml:"worker" mapstructure:"worker"`
	Push       PushConfig       `yaml:"push" mapstructure:"push"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Economy    EconomyConfig    `yaml:"economy" mapstructure:"economy"`
	JWTSecret  string           `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	TickToken  string           `yaml:"tick_token" mapstructure:"tick_token"`
	NodeID     int64            `yaml:"node_id" mapstructure:"node_id"`
}

type MySQLConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	DBName          string        `yaml:"dbname" mapstructure:"dbname"`
	Charset         string        `yaml:"charset" mapstructure:"charset"`
	MaxIdle         int           `yaml:"max_idle" mapstructure:"max_idle"`
	MaxConn         int           `yaml:"max_conn" mapstructure:"max_conn"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	SlowThreshold   time.Duration `yaml:"slow_threshold" mapstructure:"slow_threshold"`
	AutoMigrate     bool          `yaml:"auto_migrate" mapstructure:"auto_migrate"`
}

// MongoDBConfig 为空 URI 时不启用 Mongo 版 tick 日志。
type MongoDBConfig struct {
	URI             string `yaml:"uri" mapstructure:"uri"`
	Database        string `yaml:"database" mapstructure:"database"`
	ConnectTimeoutS int    `yaml:"connect_timeout_s" mapstructure:"connect_timeout_s"`
}

type LevelDBConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type HTTPServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// WorkerConfig 对应独立的 tick worker 进程。
type WorkerConfig struct {
	Host       string `yaml:"host" mapstructure:"host"`
	HealthPort int    `yaml:"health_port" mapstructure:"health_port"`
}

type PushConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	NeedSecret bool `yaml:"need_secret" mapstructure:"need_secret"`
}

type LogConfig struct {
	FileDir    string `yaml:"file_dir" mapstructure:"file_dir"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"` // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"` // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	Level      string `yaml:"level" mapstructure:"level"` // debug/info/warn/error...
	Dev        bool   `yaml:"dev" mapstructure:"dev"`
}

type EconomyConfig struct {
	QueueCapacity      int           `yaml:"queue_capacity" mapstructure:"queue_capacity"`
	TickInterval       time.Duration `yaml:"tick_interval" mapstructure:"tick_interval"`
	AccrualMinInterval time.Duration `yaml:"accrual_min_interval" mapstructure:"accrual_min_interval"`
	ResourceCap        int64         `yaml:"resource_cap" mapstructure:"resource_cap"`
	BasePopulation     int64         `yaml:"base_population" mapstructure:"base_population"`
	CompletionWindow   time.Duration `yaml:"completion_window" mapstructure:"completion_window"`
	CatalogFile        string        `yaml:"catalog_file" mapstructure:"catalog_file"`
	SchedulerEnabled   bool          `yaml:"scheduler_enabled" mapstructure:"scheduler_enabled"`
}
