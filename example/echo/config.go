package main

import (
	"os"
	"strings"
	"time"

	"github.com/huoshan017/sronet/protocol"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// Config is shared by the server and client commands
type Config struct {
	Address      string        `yaml:"address"`
	Codec        string        `yaml:"codec"`
	Options      []string      `yaml:"options"` // 服务器在握手中宣告的特性
	MaxConn      int           `yaml:"max_conn"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	Count        int           `yaml:"count"` // 客户端发送的请求数
	Debug        bool          `yaml:"debug"`
}

func defaultConfig() *Config {
	return &Config{
		Address:      "127.0.0.1:15779",
		Codec:        "msgpack",
		Options:      []string{"encryption", "checksum", "key_exchange"},
		MaxConn:      1000,
		ReadTimeout:  time.Minute,
		WriteTimeout: 10 * time.Second,
		Count:        10,
	}
}

// LoadConfig reads path over the defaults, an empty path gives the defaults
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse %v", path)
	}
	return cfg, nil
}

func (c *Config) ProtocolOption() (protocol.Option, error) {
	var o protocol.Option
	for _, name := range c.Options {
		switch strings.ToLower(strings.ReplaceAll(name, "-", "_")) {
		case "none":
		case "disable":
			o |= protocol.OptionDisable
		case "encryption":
			o |= protocol.OptionEncryption
		case "checksum":
			o |= protocol.OptionChecksum
		case "key_exchange":
			o |= protocol.OptionKeyExchange
		case "key_challenge":
			o |= protocol.OptionKeyChallenge
		default:
			return 0, errors.Errorf("unknown protocol option %q", name)
		}
	}
	return o, nil
}
