package main

// @title           POS Facturación API
// @version         1.0
// @description     API multi-tenant de faturação eletrônica DIAN para ponto de venda

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Cabeçalho de autenticação JWT usando o esquema Bearer. Exemplo: "Bearer {token}"
