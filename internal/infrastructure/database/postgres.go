package database

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hugohenrick/pos-facturacion/pkg/tenant"
)

// PostgresConfig contém as configurações para conexão com o PostgreSQL
type PostgresConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Database       string
	SSLMode        string
	MaxConnections int32
	MinConnections int32
}

// NewPostgresConfigFromEnv monta a configuração a partir das variáveis de
// ambiente
func NewPostgresConfigFromEnv() PostgresConfig {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		port = 5432
	}

	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNECTIONS", "10"))
	if err != nil {
		maxConns = 10
	}

	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNECTIONS", "2"))
	if err != nil {
		minConns = 2
	}

	return PostgresConfig{
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           port,
		User:           getEnv("DB_USER", "postgres"),
		Password:       getEnv("DB_PASSWORD", "postgres"),
		Database:       getEnv("DB_NAME", "pos_facturacion"),
		SSLMode:        getEnv("DB_SSL_MODE", "disable"),
		MaxConnections: int32(maxConns),
		MinConnections: int32(minConns),
	}
}

// ConnectionString retorna a URL de conexão com o banco
func (c PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// PostgresDB encapsula o pool de conexões com o PostgreSQL
type PostgresDB struct {
	pool   *pgxpool.Pool
	config PostgresConfig
}

// NewPostgresDB cria um novo pool de conexões com o PostgreSQL
func NewPostgresDB(config PostgresConfig) (*PostgresDB, error) {
	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("erro ao interpretar configuração do banco: %w", err)
	}

	poolConfig.MaxConns = config.MaxConnections
	poolConfig.MinConns = config.MinConnections

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar pool de conexões: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("erro ao verificar conexão com o banco de dados: %w", err)
	}

	return &PostgresDB{
		pool:   pool,
		config: config,
	}, nil
}

// Pool retorna o pool de conexões subjacente
func (db *PostgresDB) Pool() *pgxpool.Pool {
	return db.pool
}

// Config retorna a configuração de conexão usada pelo pool
func (db *PostgresDB) Config() PostgresConfig {
	return db.config
}

// GetConnection retorna uma conexão do pool para uso
func (db *PostgresDB) GetConnection(ctx context.Context) (*pgxpool.Conn, error) {
	return db.pool.Acquire(ctx)
}

// GetTenantConnection retorna uma conexão configurada para o schema do
// tenant presente no contexto
func (db *PostgresDB) GetTenantConnection(ctx context.Context) (*pgxpool.Conn, error) {
	// Adquirir conexão do pool
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao adquirir conexão do pool: %w", err)
	}

	// Verificar se há um tenant no contexto
	tenantID := tenant.GetTenantIDFromContext(ctx)
	if tenantID == "" {
		// Se não houver tenant, usa o schema public
		_, err = conn.Exec(ctx, "SET search_path TO public")
		if err != nil {
			conn.Release()
			return nil, fmt.Errorf("erro ao definir schema public: %w", err)
		}
		return conn, nil
	}

	return db.connForTenant(ctx, conn, tenantID)
}

// GetConnectionForTenant retorna uma conexão configurada para o schema de
// um tenant específico, independente do contexto. Usado pelo worker, que
// processa documentos de vários tenants na mesma varredura.
func (db *PostgresDB) GetConnectionForTenant(ctx context.Context, tenantID string) (*pgxpool.Conn, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("erro ao adquirir conexão do pool: %w", err)
	}
	return db.connForTenant(ctx, conn, tenantID)
}

func (db *PostgresDB) connForTenant(ctx context.Context, conn *pgxpool.Conn, tenantID string) (*pgxpool.Conn, error) {
	// Buscar informações do tenant para obter o schema
	var schema string
	err := conn.QueryRow(ctx,
		"SELECT schema FROM public.tenants WHERE id = $1",
		tenantID).Scan(&schema)

	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("erro ao buscar schema do tenant: %w", err)
	}

	// Configurar a conexão para usar o schema do tenant
	_, err = conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s, public", schema))
	if err != nil {
		conn.Release()
		return nil, fmt.Errorf("erro ao definir schema do tenant: %w", err)
	}

	return conn, nil
}

// CreateTenantSchema cria um novo schema para o tenant
func (db *PostgresDB) CreateTenantSchema(ctx context.Context, schema string) error {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("erro ao adquirir conexão do pool: %w", err)
	}
	defer conn.Release()

	// Criar schema
	_, err = conn.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema))
	if err != nil {
		return fmt.Errorf("erro ao criar schema: %w", err)
	}

	// Configurar permissões
	_, err = conn.Exec(ctx, fmt.Sprintf("GRANT ALL ON SCHEMA %s TO %s", schema, db.config.User))
	if err != nil {
		return fmt.Errorf("erro ao configurar permissões do schema: %w", err)
	}

	return nil
}

// Close fecha o pool de conexões
func (db *PostgresDB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Transaction executa uma função dentro de uma transação
func (db *PostgresDB) Transaction(ctx context.Context, txFunc func(tx pgx.Tx) error) error {
	// Adquirir conexão do pool
	conn, err := db.GetTenantConnection(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	// Iniciar transação
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("erro ao iniciar transação: %w", err)
	}

	// Executar função dentro da transação
	if err := txFunc(tx); err != nil {
		// Rollback em caso de erro
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Printf("erro ao fazer rollback: %v", rbErr)
		}
		return err
	}

	// Commit se tudo ocorreu bem
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("erro ao fazer commit: %w", err)
	}

	return nil
}

// getEnv retorna o valor de uma variável de ambiente ou um valor padrão
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
