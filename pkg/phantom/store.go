package phantom

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"shadownexus/pkg/config"
)

// ErrOperationNotFound reports a retrieval of an unknown operation id.
var ErrOperationNotFound = errors.New("operation not found")

// Operation is one archived retrieval: the sealed payload plus metadata.
type Operation struct {
	ID        string    `gorm:"primaryKey"`
	TargetURL string    `gorm:"not null"`
	DataHash  string    `gorm:"not null;index"`
	Nonce     []byte    `gorm:"not null"`
	Sealed    []byte    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// Store archives sealed operations.
type Store interface {
	Save(ctx context.Context, op *Operation) error
	Get(ctx context.Context, id string) (*Operation, error)
	Count(ctx context.Context) (int64, error)
}

// PostgresStore archives operations in Postgres through gorm.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore opens the connection pool and migrates the schema.
func NewPostgresStore(cfg config.DBConfig) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn(cfg)), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&Operation{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Save(ctx context.Context, op *Operation) error {
	return s.db.WithContext(ctx).Create(op).Error
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Operation, error) {
	var op Operation
	err := s.db.WithContext(ctx).First(&op, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOperationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &op, nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Operation{}).Count(&count).Error
	return count, err
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dsn(cfg config.DBConfig) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", host, port),
	}
	if cfg.User != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.User, cfg.Password)
		} else {
			u.User = url.User(cfg.User)
		}
	}
	if cfg.Name != "" {
		u.Path = "/" + cfg.Name
	}

	query := url.Values{}
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()

	return u.String()
}

// MemoryStore is an in-process Store for tests and dry runs.
type MemoryStore struct {
	mu  sync.RWMutex
	ops map[string]*Operation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ops: make(map[string]*Operation)}
}

func (s *MemoryStore) Save(_ context.Context, op *Operation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *op
	s.ops[op.ID] = &copied
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	op, ok := s.ops[id]
	if !ok {
		return nil, ErrOperationNotFound
	}
	copied := *op
	return &copied, nil
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.ops)), nil
}
