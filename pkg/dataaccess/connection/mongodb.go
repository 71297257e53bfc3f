package connection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// MongoDB describes how to reach a MongoDB deployment. Either ConnectionString or Host must be set.
type MongoDB struct {
	ConnectionString string `yaml:"uri"`
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	Host             string `yaml:"host"`
	Port             string `yaml:"port"`
	Args             string `yaml:"args"`
}

// GenerateConnectionString builds a mongodb+srv connection string from the individual parts.
func (m *MongoDB) GenerateConnectionString() {
	var sb strings.Builder
	sb.WriteString("mongodb+srv://")
	if m.Username != "" && m.Password != "" {
		sb.WriteString(m.Username + ":" + m.Password + "@")
	} else if m.Username != "" {
		sb.WriteString(m.Username + "@")
	}

	sb.WriteString(m.Host)

	if m.Port != "" {
		sb.WriteString(":" + m.Port)
	}

	if m.Args != "" {
		sb.WriteString("/?" + m.Args)
	}

	m.ConnectionString = sb.String()
}

// Connect opens a client and pings the primary before returning it.
func (m *MongoDB) Connect(ctx context.Context) (*mongo.Client, error) {
	if m.ConnectionString == "" {
		if m.Host == "" {
			return nil, errors.New("mongo connection string or host is required")
		}
		m.GenerateConnectionString()
	}

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(m.ConnectionString).SetServerAPIOptions(serverAPI)

	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongo: %w", err)
	}

	if err := client.Ping(connCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("error pinging mongo: %w", err)
	}
	return client, nil
}
