package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/matzehuels/kvtools/internal/server"
	kverrors "github.com/matzehuels/kvtools/pkg/errors"
	"github.com/matzehuels/kvtools/pkg/registry"
)

// Configuration keys. Environment variables are KVTOOLS_ plus the key in
// upper case with "-" replaced by "_".
const (
	keyRoot      = "root"
	keyIndex     = "index"
	keyAddr      = "addr"
	keyRedisAddr = "redis-addr"
	keyRedisKey  = "redis-key"
)

// settings is the effective configuration of one invocation.
type settings struct {
	Root      string
	Index     string
	Addr      string
	RedisAddr string
	RedisKey  string
}

// bindFlags declares the persistent flags and binds them to viper.
func (c *CLI) bindFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	f.StringVar(&c.configFile, "config", "", "config file (default: ./kvtools.{toml,yaml} if present)")
	f.String(keyRoot, "", "store root directory (default: ./"+registry.DefaultRootName+")")
	f.String(keyIndex, "", "registry index path (default: ./web/"+registry.DefaultIndexName+")")
	f.String(keyRedisAddr, "", "mirror the index to this Redis server")
	f.String(keyRedisKey, registry.DefaultRedisKey, "Redis key for the index mirror")

	for _, k := range []string{keyRoot, keyIndex, keyRedisAddr, keyRedisKey} {
		_ = c.v.BindPFlag(k, f.Lookup(k))
	}

	c.v.SetDefault(keyAddr, server.DefaultAddr)
	c.v.SetDefault(keyRedisKey, registry.DefaultRedisKey)
	c.v.SetEnvPrefix(strings.ToUpper(appName))
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
}

// loadConfig reads the config file, if any.
func (c *CLI) loadConfig() error {
	if c.configFile != "" {
		c.v.SetConfigFile(c.configFile)
	} else {
		c.v.SetConfigName(appName)
		c.v.AddConfigPath(".")
	}

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return kverrors.Wrap(kverrors.ErrCodeConfiguration, err, "read config")
	}
	c.Logger.Debug("using config file", "path", c.v.ConfigFileUsed())
	return nil
}

func (c *CLI) settings() settings {
	return settings{
		Root:      c.v.GetString(keyRoot),
		Index:     c.v.GetString(keyIndex),
		Addr:      c.v.GetString(keyAddr),
		RedisAddr: c.v.GetString(keyRedisAddr),
		RedisKey:  c.v.GetString(keyRedisKey),
	}
}

// registryConfig resolves the registry location from the settings.
func (c *CLI) registryConfig() (registry.Config, error) {
	s := c.settings()
	return registry.NewConfig(s.Root, s.Index)
}

// publisher builds the index publisher: the file store, plus the Redis
// mirror when configured. The returned close function releases the Redis
// client.
func (c *CLI) publisher(ctx context.Context, cfg registry.Config) (registry.Publisher, func(), error) {
	file := registry.NewFileIndexStore(cfg.IndexPath)
	s := c.settings()
	if s.RedisAddr == "" {
		return file, func() {}, nil
	}

	client, err := registry.DialRedis(ctx, s.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	mirror := registry.NewRedisIndexStore(client, s.RedisKey)
	closeFn := func() {
		if err := mirror.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			c.Logger.Warn("close redis", "err", err)
		}
	}
	return registry.MultiPublisher{file, mirror}, closeFn, nil
}

func (c *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.registryConfig()
			if err != nil {
				return err
			}
			s := c.settings()

			redisAddr := s.RedisAddr
			if redisAddr == "" {
				redisAddr = "(disabled)"
			}
			configFile := c.v.ConfigFileUsed()
			if configFile == "" {
				configFile = "(none)"
			}

			printKeyValue("config", configFile)
			printKeyValue("root", cfg.RootDir)
			printKeyValue("images", cfg.ImagesDir)
			printKeyValue("index", cfg.IndexPath)
			printKeyValue("addr", s.Addr)
			printKeyValue("redis", redisAddr)
			printKeyValue("redis key", s.RedisKey)
			return nil
		},
	}
}

// describe returns a one-line summary used in debug logs.
func (s settings) describe() string {
	return fmt.Sprintf("root=%q index=%q addr=%q", s.Root, s.Index, s.Addr)
}
