package config

import (
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the waypoint service.
//
// Fields:
// - Env: The current environment (local, development, production).
// - Port: The port of the HTTP API and monitoring endpoints.
// - ProviderType: The geocoding provider to use (google, nominatim, none).
// - APIKey: The API key for the geocoding provider (required for Google).
// - Workers: The number of concurrent geocoding and filtering workers.
// - Interval: The duration between geocoding backfill rounds.
// - ParallelThreshold: Candidate count above which proximity queries run in parallel.
// - Database, Places, Redis: Connection settings of the backing stores.
type Config struct {
	Env               string         // Env is the current environment: local, development, production.
	Port              int            // Port is the HTTP server port.
	ProviderType      string         // ProviderType specifies which geocoding provider to use.
	APIKey            string         // The API key for accessing external services.
	Language          string         // Preferred language of geocoding results.
	Workers           int            // The number of concurrent workers.
	Interval          time.Duration  // The duration between backfill rounds.
	ParallelThreshold int            // Candidate count above which the filter runs in parallel.
	Database          PostgresConfig // Database holds the postgres database configuration
	Places            PlacesConfig   // Places holds the document store configuration
	Redis             RedisConfig    // Redis holds the geocoding cache configuration
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
}

// PlacesConfig selects and configures the place document store.
type PlacesConfig struct {
	Backend         string // Backend is mongo or elastic.
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	ElasticURL      string
	ElasticIndex    string
}

// RedisConfig configures the geocoding cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

var defaults = map[string]string{
	"WAYPOINT_ENV":                "production",
	"WAYPOINT_PORT":               "8080",
	"WAYPOINT_PROVIDER_TYPE":      "nominatim",
	"WAYPOINT_WORKERS":            "4",
	"WAYPOINT_INTERVAL":           "5m",
	"WAYPOINT_PARALLEL_THRESHOLD": "2048",
	"WAYPOINT_PLACE_BACKEND":      "mongo",
	"DB_PORT":                     "5432",
	"MONGO_URI":                   "mongodb://localhost:27017",
	"MONGO_DATABASE":              "waypoint",
	"MONGO_COLLECTION":            "places",
	"ELASTIC_URL":                 "http://localhost:9200",
	"ELASTIC_INDEX":               "places",
	"REDIS_DB":                    "0",
	"REDIS_TTL":                   "720h",
}

// MustLoad reads the configuration from the environment, a .env file and the
// optional YAML file named by WAYPOINT_CONFIG_FILE. Environment variables win
// over the file. It panics on values that cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	vpr := viper.New()
	vpr.AutomaticEnv()
	for key, value := range defaults {
		vpr.SetDefault(key, value)
	}

	if file := vpr.GetString("WAYPOINT_CONFIG_FILE"); file != "" {
		vpr.SetConfigFile(file)
		vpr.SetConfigType("yaml")
		if err := vpr.ReadInConfig(); err != nil {
			panic("failed to read configuration file: " + err.Error())
		}
	}

	interval, err := time.ParseDuration(vpr.GetString("WAYPOINT_INTERVAL"))
	if err != nil {
		panic("failed to parse interval from configuration")
	}

	port, err := strconv.Atoi(vpr.GetString("WAYPOINT_PORT"))
	if err != nil {
		panic("failed to parse port from configuration")
	}

	workers, err := strconv.Atoi(vpr.GetString("WAYPOINT_WORKERS"))
	if err != nil {
		panic("failed to parse workers from configuration, must be an integer types")
	}

	threshold, err := strconv.Atoi(vpr.GetString("WAYPOINT_PARALLEL_THRESHOLD"))
	if err != nil {
		panic("failed to parse parallel threshold from configuration")
	}

	redisDB, err := strconv.Atoi(vpr.GetString("REDIS_DB"))
	if err != nil {
		panic("failed to parse redis database from configuration")
	}

	redisTTL, err := time.ParseDuration(vpr.GetString("REDIS_TTL"))
	if err != nil {
		panic("failed to parse redis ttl from configuration")
	}

	return &Config{
		Env:               vpr.GetString("WAYPOINT_ENV"),
		Port:              port,
		ProviderType:      vpr.GetString("WAYPOINT_PROVIDER_TYPE"),
		APIKey:            vpr.GetString("WAYPOINT_PROVIDER_KEY"),
		Language:          vpr.GetString("WAYPOINT_PROVIDER_LANGUAGE"),
		Workers:           workers,
		Interval:          interval,
		ParallelThreshold: threshold,
		Database: PostgresConfig{
			Host:     vpr.GetString("DB_HOST"),
			Port:     vpr.GetString("DB_PORT"),
			User:     vpr.GetString("DB_USERNAME"),
			Password: vpr.GetString("DB_PASSWORD"),
			Name:     vpr.GetString("DB_NAME"),
		},
		Places: PlacesConfig{
			Backend:         vpr.GetString("WAYPOINT_PLACE_BACKEND"),
			MongoURI:        vpr.GetString("MONGO_URI"),
			MongoDatabase:   vpr.GetString("MONGO_DATABASE"),
			MongoCollection: vpr.GetString("MONGO_COLLECTION"),
			ElasticURL:      vpr.GetString("ELASTIC_URL"),
			ElasticIndex:    vpr.GetString("ELASTIC_INDEX"),
		},
		Redis: RedisConfig{
			Addr:     vpr.GetString("REDIS_ADDR"),
			Password: vpr.GetString("REDIS_PASSWORD"),
			DB:       redisDB,
			TTL:      redisTTL,
		},
	}
}
