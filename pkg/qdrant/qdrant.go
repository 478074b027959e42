package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

type Config struct {
	Host       string `split_words:"true" default:"localhost"`
	Port       int    `split_words:"true" default:"6334"`
	APIKey     string `envconfig:"API_KEY"`
	UseTLS     bool   `envconfig:"USE_TLS" default:"false"`
	Collection string `split_words:"true" default:"clinic_knowledge"`
	VectorSize uint64 `split_words:"true" default:"4096"`
}

// New dials the gRPC endpoint and verifies it with a health check.
func (c *Config) New(ctx context.Context) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   c.Host,
		Port:   c.Port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("qdrant health check: %w", err)
	}
	return client, nil
}
