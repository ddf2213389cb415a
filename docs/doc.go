// Package docs provides generated OpenAPI documentation.
//
// n8ntools API
//
//	@title			n8ntools API
//	@version		1.0
//	@description	PDF split and merge, Mistral OCR and Qdrant collection management for n8n workflows.
//	@termsOfService	http://swagger.io/terms/
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/n8ntools
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@schemes	http https
//
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key
package docs

//go:generate swag init -g ../cmd/n8ntools/serve.go -o ./swagger --parseDependency --parseInternal --outputTypes go
