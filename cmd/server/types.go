package main

import (
	"codeberg.org/gatekeep/server/gatekeep/refreshtokens"
	"codeberg.org/gatekeep/server/gatekeep/sessions"
	"codeberg.org/gatekeep/server/gatekeep/store"
	"codeberg.org/gatekeep/server/internal/auth"
	"codeberg.org/gatekeep/server/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// holds all dependencies and state for the API server
type Server struct {
	db             *pgxpool.Pool // nil with the memory driver
	config         *config.Config
	store          store.Store
	signer         *auth.Signer
	sessions       *sessions.Service
	cleanupService *refreshtokens.CleanupService
	router         *gin.Engine
}
