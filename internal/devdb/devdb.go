// Package devdb runs throwaway database servers in containers for
// integration tests and local development.
package devdb

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/steelsid0609/training-rcf/internal/config"
	"github.com/steelsid0609/training-rcf/internal/database"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

// Engine describes how to run one database server image
type Engine struct {
	Name  string
	Image string
	Port  string
	Env   map[string]string
	// Config is completed with the mapped host and port once started
	Config config.Config
}

const (
	dbName     = "rcf"
	dbUser     = "rcf"
	dbPassword = "rcfpass"
)

var engines = map[string]Engine{
	"mariadb": {
		Name:  "mariadb",
		Image: "mariadb:11",
		Port:  "3306",
		Env: map[string]string{
			"MARIADB_ROOT_PASSWORD": "rootpass",
			"MARIADB_DATABASE":      dbName,
			"MARIADB_USER":          dbUser,
			"MARIADB_PASSWORD":      dbPassword,
		},
		Config: config.Config{DBType: "mariadb", DBDatabase: dbName, DBUser: dbUser, DBPassword: dbPassword},
	},
	"postgres": {
		Name:  "postgres",
		Image: "postgres:16-alpine",
		Port:  "5432",
		Env: map[string]string{
			"POSTGRES_DB":       dbName,
			"POSTGRES_USER":     dbUser,
			"POSTGRES_PASSWORD": dbPassword,
		},
		Config: config.Config{DBType: "postgres", DBDatabase: dbName, DBUser: dbUser, DBPassword: dbPassword, DBSSLMode: "disable"},
	},
}

// Names lists the supported engines
func Names() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named engine. MARIADB_IMAGE or POSTGRES_IMAGE override the image.
func Lookup(name string) (Engine, error) {
	e, ok := engines[name]
	if !ok {
		return Engine{}, fmt.Errorf("unknown engine %q: must be one of %v", name, Names())
	}
	switch name {
	case "mariadb":
		e.Image = getEnv("MARIADB_IMAGE", e.Image)
	case "postgres":
		e.Image = getEnv("POSTGRES_IMAGE", e.Image)
	}
	return e, nil
}

// Instance is a running database container
type Instance struct {
	Container testcontainers.Container
	Config    *config.Config
}

// Start runs the engine and waits until its port is listening
func Start(ctx context.Context, e Engine) (*Instance, error) {
	port, err := nat.NewPort("tcp", e.Port)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s port: %w", e.Name, err)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        e.Image,
			ExposedPorts: []string{string(port)},
			Env:          e.Env,
			WaitingFor:   wait.ForListeningPort(port).WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", e.Name, err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	cfg := e.Config
	cfg.DBHost = host
	cfg.DBPort = mapped.Port()
	cfg.DBConnectionLimit = 8
	cfg.DBLogLevel = "silent"
	return &Instance{Container: container, Config: &cfg}, nil
}

// Connect opens the instance's database, retrying until the server accepts
// queries or ctx is done. The port listens before init scripts finish.
func (i *Instance) Connect(ctx context.Context) (*gorm.DB, error) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	var lastErr error
	for {
		db, err := database.Connect(i.Config)
		if err == nil {
			sqlDB, _ := db.DB()
			if err = sqlDB.PingContext(ctx); err == nil {
				return db, nil
			}
			_ = sqlDB.Close()
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("database never became reachable: %w", lastErr)
		case <-ticker.C:
		}
	}
}

// Env renders the DB_* variables the server and rcfctl read
func (i *Instance) Env() []string {
	c := i.Config
	return []string{
		"DB_TYPE=" + c.DBType,
		"DB_HOST=" + c.DBHost,
		"DB_PORT=" + c.DBPort,
		"DB_DATABASE=" + c.DBDatabase,
		"DB_USER=" + c.DBUser,
		"DB_PASSWORD=" + c.DBPassword,
		"DB_SSL_MODE=" + c.DBSSLMode,
	}
}

// Terminate stops and removes the container
func (i *Instance) Terminate(ctx context.Context) error {
	return i.Container.Terminate(ctx)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
