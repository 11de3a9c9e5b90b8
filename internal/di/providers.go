package di

import (
	"context"
	"log"

	"gorm.io/gorm"

	"chatsync/internal/api"
	"chatsync/internal/chat/repository"
	"chatsync/internal/chat/service"
	"chatsync/internal/common"
	"chatsync/internal/config"
	"chatsync/internal/dblocal"
	"chatsync/internal/diag"
	"chatsync/internal/roster"
	"chatsync/internal/transport"
)

// Application bundles everything the chat client daemon needs.
type Application struct {
	Config    *config.Config
	Session   *common.Session
	DB        *gorm.DB
	Store     *dblocal.Store
	Repo      repository.ChatRepository
	API       *api.Client
	Transport *transport.Client
	Chat      service.ChatService
	Roster    *roster.Roster
	Recorder  *diag.Recorder
	Diag      *diag.Server
}

// ProvideDatabase opens the local store connection and hands wire the
// cleanup that closes it on shutdown.
func ProvideDatabase(cfg *config.Config) (*gorm.DB, func(), error) {
	db, err := dblocal.NewDB(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		sqlDB, err := db.DB()
		if err != nil {
			log.Printf("closing store: %v", err)
			return
		}
		sqlDB.Close()
	}
	return db, cleanup, nil
}

// ProvideSummarySource scopes the diagnostics conversation listing to the
// session user.
func ProvideSummarySource(repo repository.ChatRepository, session *common.Session) diag.SummarySource {
	return func(ctx context.Context) ([]repository.ConversationSummary, error) {
		return repo.GetConversationsForUser(ctx, session.UserID)
	}
}
