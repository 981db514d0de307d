package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/target/harvester-api/config"
)

// ConnectRedis builds a single-node, sentinel or cluster client from cfg and
// verifies it with a ping.
//
//nolint:ireturn // the topology is chosen at runtime.
func ConnectRedis(ctx context.Context, cfg DatabaseConfig) (redis.UniversalClient, error) {
	opts, desc, err := redisOptions(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := redis.NewUniversalClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if pingErr := client.Ping(pingCtx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping redis: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "addr", desc)
	}
	return client, nil
}

// redisOptions maps the config onto UniversalOptions. desc is a loggable
// description of the target with credentials removed.
func redisOptions(cfg config.RedisConfig) (*redis.UniversalOptions, string, error) {
	switch {
	case cfg.UseCluster:
		return clusterOptions(cfg)
	case cfg.UseSentinel:
		nodes := normalizeAddrs(cfg.SentinelNodes)
		if len(nodes) == 0 {
			return nil, "", errors.New("redis sentinel configuration requires at least one sentinel node")
		}
		return &redis.UniversalOptions{
			MasterName:       cfg.SentinelMasterName,
			Addrs:            nodes,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
			DB:               cfg.DB,
		}, "sentinel:" + cfg.SentinelMasterName, nil
	default:
		return directOptions(cfg)
	}
}

func clusterOptions(cfg config.RedisConfig) (*redis.UniversalOptions, string, error) {
	opts := &redis.UniversalOptions{
		Addrs:         normalizeAddrs(cfg.ClusterNodes),
		Password:      cfg.Password,
		IsClusterMode: true,
	}
	// Without explicit nodes the URI seeds cluster discovery.
	if len(opts.Addrs) == 0 && cfg.URI != "" {
		if !isRedisURL(cfg.URI) {
			opts.Addrs = []string{cfg.URI}
		} else {
			parsed, err := redis.ParseURL(cfg.URI)
			if err != nil {
				return nil, "", fmt.Errorf("parse redis cluster url: %w", err)
			}
			opts.Addrs = []string{parsed.Addr}
			opts.Username = parsed.Username
			opts.TLSConfig = parsed.TLSConfig
			if parsed.Password != "" {
				opts.Password = parsed.Password
			}
		}
	}
	if len(opts.Addrs) == 0 {
		return nil, "", errors.New("redis cluster configuration requires at least one address")
	}
	return opts, "cluster:" + strings.Join(opts.Addrs, ","), nil
}

func directOptions(cfg config.RedisConfig) (*redis.UniversalOptions, string, error) {
	if cfg.URI == "" {
		return nil, "", errors.New("redis direct configuration requires a URI")
	}
	if !isRedisURL(cfg.URI) {
		return &redis.UniversalOptions{
			Addrs:    []string{cfg.URI},
			Password: cfg.Password,
			DB:       cfg.DB,
		}, cfg.URI, nil
	}
	parsed, err := redis.ParseURL(cfg.URI)
	if err != nil {
		return nil, "", fmt.Errorf("parse redis url: %w", err)
	}
	return &redis.UniversalOptions{
		Addrs:     []string{parsed.Addr},
		Username:  parsed.Username,
		Password:  parsed.Password,
		DB:        parsed.DB,
		TLSConfig: parsed.TLSConfig,
	}, redactURL(cfg.URI), nil
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.LastIndex(raw, "@"); i > -1 {
			return raw[i+1:]
		}
		return raw
	}
	return u.Redacted()
}

func normalizeAddrs(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, addr := range raw {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}
