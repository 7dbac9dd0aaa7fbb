package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Chain struct {
		Network         string
		RPCEndpoint     string
		ContractAccount string
		TokenContract   string
		Symbol          string
	}
	Wallet struct {
		CloudEndpoint  string
		AnchorEndpoint string
		AppIdentifier  string
	}
	Pinata struct {
		JWT         string
		Endpoint    string
		Gateway     string
		PinProfiles bool
	}
	Storage struct {
		Bucket         string
		KeyPrefix      string
		Region         string
		Endpoint       string
		MaxUploadBytes int64
	}
	AWS struct {
		Profile string
	}
	Auth struct {
		JWTSecret       string
		TokenTTLMinutes int
	}
	Session struct {
		MaxClients int
	}
	Payment struct {
		RentFee float64
	}
	Grid struct {
		Width  int
		Height int
	}
}

// Load reads configuration from environment variables and optional config files.
// A non-empty path names an explicit config file.
func Load(path string) (Config, error) {
	_ = godotenv.Load() // optional .env, never overrides the environment

	v := viper.New()
	v.SetEnvPrefix("POPBALLOONS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.path", "data/popballoons.db")
	v.SetDefault("chain.network", "testnet")
	v.SetDefault("chain.rpcendpoint", "")
	v.SetDefault("chain.contractaccount", "popballoons1")
	v.SetDefault("chain.tokencontract", "eosio.token")
	v.SetDefault("chain.symbol", "WAX")
	v.SetDefault("wallet.cloudendpoint", "")
	v.SetDefault("wallet.anchorendpoint", "")
	v.SetDefault("wallet.appidentifier", "popballoons")
	v.SetDefault("pinata.jwt", "")
	v.SetDefault("pinata.endpoint", "https://api.pinata.cloud")
	v.SetDefault("pinata.gateway", "https://gateway.pinata.cloud")
	v.SetDefault("pinata.pinprofiles", false)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "profile-media")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.maxuploadbytes", 10<<20)
	v.SetDefault("aws.profile", "")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.tokenttlminutes", 24*60)
	v.SetDefault("session.maxclients", 10000)
	v.SetDefault("payment.rentfee", 1)
	v.SetDefault("grid.width", 20)
	v.SetDefault("grid.height", 20)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		_ = v.ReadInConfig() // optional file
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}
