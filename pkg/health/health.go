package health

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/richxcame/ride-loyalty/pkg/database"
)

const probeTimeout = 2 * time.Second

// Check is a named liveness probe for one backing dependency.
type Check struct {
	Name  string
	Probe func() error
}

type report struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version string            `json:"version"`
	Deps    map[string]string `json:"deps"`
}

// Handler serves the health endpoint. It runs every probe and reports 503
// as soon as one of the backing stores or the bus is unreachable.
func Handler(serviceName, version string, checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "up"
		code := http.StatusOK
		deps := make(map[string]string, len(checks))

		for _, chk := range checks {
			if err := chk.Probe(); err != nil {
				deps[chk.Name] = err.Error()
				status = "degraded"
				code = http.StatusServiceUnavailable
			} else {
				deps[chk.Name] = "ok"
			}
		}

		c.JSON(code, report{
			Status:  status,
			Service: serviceName,
			Version: version,
			Deps:    deps,
		})
	}
}

// MongoChecker probes the document store holding riders and rides
func MongoChecker(db *database.MongoDB) Check {
	return Check{
		Name: "mongodb",
		Probe: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
			defer cancel()
			return db.Ping(ctx)
		},
	}
}

// RedisChecker probes the rider read cache
func RedisChecker(client *redis.Client) Check {
	return Check{
		Name: "redis",
		Probe: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
			defer cancel()
			return client.Ping(ctx).Err()
		},
	}
}

// NATSChecker probes the event bus connection
func NATSChecker(nc *nats.Conn) Check {
	return Check{
		Name: "nats",
		Probe: func() error {
			if !nc.IsConnected() {
				return errors.New("nats connection is down")
			}
			return nil
		},
	}
}
