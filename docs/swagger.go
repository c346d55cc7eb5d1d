// Package docs ClassTrack API documentation
package docs

// Swagger documentation info
// @title ClassTrack API
// @version 1.0
// @description REST API for the ClassTrack school progress platform
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@classtrack.app

// @host localhost:8080
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

// @tag.name auth
// @tag.description Login, registration, password reset and invitations

// @tag.name users
// @tag.description Account management

// @tag.name groups
// @tag.description Class groups and memberships

// @tag.name chapters
// @tag.description Curriculum chapters

// @tag.name homework
// @tag.description Homework submissions and teacher comments

// @tag.name reports
// @tag.description Progress reports

// @tag.name dashboard
// @tag.description Role-scoped summary figures

// @tag.name upload
// @tag.description Audio recording storage

// @tag.name admin
// @tag.description Audit trail and account monitoring
