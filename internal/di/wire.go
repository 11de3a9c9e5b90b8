//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

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

// InitializeApp builds the whole client from a session token. The real
// body is generated into wire_gen.go.
func InitializeApp(token string) (*Application, func(), error) {
	wire.Build(
		config.LoadConfig,
		common.SessionFromToken,
		ProvideDatabase,
		dblocal.NewStore,
		repository.NewChatRepository,
		api.NewClient,
		wire.Bind(new(api.Sender), new(*api.Client)),
		transport.NewClient,
		wire.Bind(new(service.Acker), new(*transport.Client)),
		service.NewChatService,
		roster.New,
		diag.NewRecorder,
		ProvideSummarySource,
		diag.NewServer,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil, nil
}
