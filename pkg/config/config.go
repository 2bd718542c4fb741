package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}

type Log struct {
	Level      string
	JSON       bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type Mongo struct {
	URI      string
	Database string
}

type JWT struct {
	Secret     string
	ExpiryDays int
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Queue struct {
	URI  string
	Name string
}

type ObjectStore struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
}

type Upstream struct {
	RouteURL      string
	RouteAPIKey   string
	GeocodeURL    string
	CrimeURL      string
	EmailCheckURL string
}

type Config struct {
	Env         string
	HTTP        HTTP
	Log         Log
	Mongo       Mongo
	JWT         JWT
	SMTP        SMTP
	Queue       Queue
	ObjectStore ObjectStore
	Upstream    Upstream
}

// Load reads configuration from an optional yaml file and the environment.
// Environment keys use the APP_ prefix with underscores, e.g. APP_HTTP_PORT,
// APP_MONGO_URI, APP_JWT_SECRET.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("http.port", 5000)
	v.SetDefault("http.readtimeoutsec", 15)
	v.SetDefault("http.writetimeoutsec", 30)
	v.SetDefault("http.idletimeoutsec", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 3)
	v.SetDefault("log.maxagedays", 28)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "safehaven")

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expirydays", 7)

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from", "Safe Haven Map")

	v.SetDefault("queue.uri", "")
	v.SetDefault("queue.name", "incident_events")

	v.SetDefault("objectstore.endpoint", "")
	v.SetDefault("objectstore.accesskey", "")
	v.SetDefault("objectstore.secretkey", "")
	v.SetDefault("objectstore.bucket", "incident-photos")
	v.SetDefault("objectstore.usessl", false)
	v.SetDefault("objectstore.publicurl", "")

	v.SetDefault("upstream.routeurl", "https://api.openrouteservice.org/v2/directions/driving-car")
	v.SetDefault("upstream.routeapikey", "")
	v.SetDefault("upstream.geocodeurl", "https://nominatim.openstreetmap.org/reverse")
	v.SetDefault("upstream.crimeurl", "https://data.police.uk/api/crimes-street/all-crime")
	v.SetDefault("upstream.emailcheckurl", "https://www.disify.com/api")
}
