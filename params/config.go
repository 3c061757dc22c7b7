package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Matching struct {
	// WindowInterval is how long one batch window stays open. Timing
	// policy is an operator choice, not part of the matching core.
	WindowInterval time.Duration
	// MaxBatchOrders caps the number of orders matched in one batch.
	// Partition enumeration grows as the Bell number of the batch size,
	// so this is a hard admission limit, not a tuning knob.
	MaxBatchOrders int
}

type Server struct {
	ListenAddr     string
	AllowedOrigins []string
}

type Storage struct {
	DBPath string
}

type Chain struct {
	ChainID           int64
	VerifyingContract string // 0x address, empty for off-chain signing
}

type Config struct {
	Matching Matching
	Server   Server
	Storage  Storage
	Chain    Chain
	LogFile  string
}

func Default() Config {
	return Config{
		Matching: Matching{
			WindowInterval: 10 * time.Second,
			MaxBatchOrders: 10,
		},
		Server: Server{
			ListenAddr:     ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Storage: Storage{DBPath: "data/batches"},
		Chain:   Chain{ChainID: 31337},
		LogFile: "data/operator.log",
	}
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	if v := os.Getenv("MATCH_WINDOW_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Matching.WindowInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("MATCH_MAX_BATCH_ORDERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Matching.MaxBatchOrders = n
		}
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("CHAIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Chain.ChainID = id
		}
	}
	if v := os.Getenv("VERIFYING_CONTRACT"); v != "" {
		cfg.Chain.VerifyingContract = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	return cfg
}
