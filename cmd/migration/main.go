package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/hugohenrick/pos-facturacion/internal/infrastructure/database"
)

func main() {
	// Carregar variáveis de ambiente
	if err := godotenv.Load(); err != nil {
		log.Printf("Aviso: Arquivo .env não encontrado: %v", err)
	}

	config := database.NewPostgresConfigFromEnv()

	// Migrações do schema public (tenants, fila fiscal, assinaturas, uso)
	if err := database.RunPublicMigrations(config); err != nil {
		log.Fatalf("Erro ao executar migrações do schema public: %v", err)
	}
	log.Println("Migrações do schema public executadas com sucesso")

	// Migrações dos schemas de tenants já provisionados
	db, err := database.NewPostgresDB(config)
	if err != nil {
		log.Fatalf("Erro ao conectar com o banco de dados: %v", err)
	}
	defer db.Close()

	schemas, err := listTenantSchemas(db)
	if err != nil {
		log.Fatalf("Erro ao listar schemas de tenants: %v", err)
	}

	for _, schema := range schemas {
		if err := database.RunTenantMigrations(config, schema); err != nil {
			log.Fatalf("Erro ao executar migrações do schema %s: %v", schema, err)
		}
		log.Printf("Migrações do schema %s executadas com sucesso", schema)
	}
}

// listTenantSchemas retorna os schemas de todos os tenants cadastrados
func listTenantSchemas(db *database.PostgresDB) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	conn, err := db.GetConnection(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, "SELECT schema FROM public.tenants ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schemas []string
	for rows.Next() {
		var schema string
		if err := rows.Scan(&schema); err != nil {
			return nil, err
		}
		schemas = append(schemas, schema)
	}
	return schemas, rows.Err()
}
