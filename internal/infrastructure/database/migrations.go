package database

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunPublicMigrations aplica as migrações do schema public (tenants,
// billing, fila fiscal e contadores de sequência)
func RunPublicMigrations(config PostgresConfig) error {
	migrationsPath := filepath.Join("migrations", "public")
	sourceURL := fmt.Sprintf("file://%s", migrationsPath)

	dbURL := fmt.Sprintf("%s&search_path=public", config.ConnectionString())

	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return fmt.Errorf("erro ao criar migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("erro ao aplicar migrações: %w", err)
	}

	log.Println("Migrações aplicadas com sucesso no schema public")
	return nil
}

// RunTenantMigrations aplica as migrações em um schema específico de
// tenant (clientes, pedidos, itens e pagamentos)
func RunTenantMigrations(config PostgresConfig, schema string) error {
	migrationsPath := filepath.Join("migrations", "tenant")
	sourceURL := fmt.Sprintf("file://%s", migrationsPath)

	// Configurar URL para as migrações incluindo o schema
	dbURL := fmt.Sprintf("%s&search_path=%s,public", config.ConnectionString(), schema)

	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return fmt.Errorf("erro ao criar migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("erro ao aplicar migrações: %w", err)
	}

	log.Printf("Migrações aplicadas com sucesso no schema %s", schema)
	return nil
}
