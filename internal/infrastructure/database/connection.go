package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/cardguard/cardguard-backend/internal/infrastructure/config"
)

// ConnectionPool wraps a pgx pool with a circuit breaker and periodic
// health checks.
type ConnectionPool struct {
	pool            *pgxpool.Pool
	config          *config.DatabaseConfig
	logger          *zap.Logger
	healthCheckStop chan struct{}
	stopOnce        sync.Once
	circuitBreaker  *CircuitBreaker
}

// CircuitBreaker trips after repeated connection failures so a dead
// database fails fast instead of piling up acquire timeouts.
type CircuitBreaker struct {
	mu              sync.Mutex
	failureCount    int
	lastFailureTime time.Time
	state           CircuitState
	timeout         time.Duration
	threshold       int
}

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// NewConnectionPool creates and pings a connection pool.
func NewConnectionPool(cfg *config.DatabaseConfig, logger *zap.Logger) (*ConnectionPool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool := &ConnectionPool{
		config:          cfg,
		logger:          logger,
		healthCheckStop: make(chan struct{}),
		circuitBreaker: &CircuitBreaker{
			timeout:   30 * time.Second,
			threshold: 10,
			state:     CircuitClosed,
		},
	}

	pool.configurePgxPool(poolConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool.pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	go pool.healthCheckRoutine()

	logger.Info("database connection pool initialized",
		zap.Int("max_connections", int(poolConfig.MaxConns)))

	return pool, nil
}

func (p *ConnectionPool) configurePgxPool(poolConfig *pgxpool.Config) {
	if p.config.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(p.config.MaxOpenConns)
	} else {
		poolConfig.MaxConns = 25
	}
	if p.config.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(p.config.MaxIdleConns)
	} else {
		poolConfig.MinConns = 5
	}
	if p.config.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = p.config.ConnMaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}
	poolConfig.MaxConnIdleTime = 10 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	poolConfig.ConnConfig.ConnectTimeout = 5 * time.Second
	poolConfig.ConnConfig.RuntimeParams = map[string]string{
		"application_name":  "cardguard_api",
		"timezone":          "UTC",
		"lock_timeout":      "10s",
		"statement_timeout": "30s",
	}

	poolConfig.BeforeAcquire = func(ctx context.Context, conn *pgx.Conn) bool {
		if !p.circuitBreaker.Allow() {
			return false
		}

		ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		return conn.Ping(ctx) == nil
	}
}

// Pool returns the underlying pgx pool.
func (p *ConnectionPool) Pool() *pgxpool.Pool {
	return p.pool
}

// Transaction executes fn within a transaction, committing on nil
// return and rolling back otherwise.
func (p *ConnectionPool) Transaction(ctx context.Context, fn func(pgx.Tx) error) error {
	err := pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, fn)
	if err != nil {
		p.circuitBreaker.RecordFailure()
	} else {
		p.circuitBreaker.RecordSuccess()
	}
	return err
}

func (p *ConnectionPool) healthCheckRoutine() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := p.pool.Ping(ctx); err != nil {
				p.logger.Error("database health check failed", zap.Error(err))
				p.circuitBreaker.RecordFailure()
			} else {
				p.circuitBreaker.RecordSuccess()
			}
			cancel()
		case <-p.healthCheckStop:
			return
		}
	}
}

// Close stops the health checker and closes the pool.
func (p *ConnectionPool) Close() error {
	p.stopOnce.Do(func() { close(p.healthCheckStop) })
	p.pool.Close()
	p.logger.Info("database connection pool closed")
	return nil
}

// GetDB returns a standard database/sql DB for compatibility
func (p *ConnectionPool) GetDB() (*sql.DB, error) {
	return stdlib.OpenDBFromPool(p.pool), nil
}

func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.lastFailureTime) > cb.timeout {
			cb.state = CircuitHalfOpen
			return true
		}
		return false
	case CircuitHalfOpen:
		return true
	}
	return false
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	cb.state = CircuitClosed
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = time.Now()

	if cb.failureCount >= cb.threshold {
		cb.state = CircuitOpen
	}
}
