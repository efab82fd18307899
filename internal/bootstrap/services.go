package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/flixbase/authsvc/config"
	bcryptadapter "github.com/flixbase/authsvc/internal/adapters/bcrypt"
	redisadapter "github.com/flixbase/authsvc/internal/adapters/redis"
	tokenadapter "github.com/flixbase/authsvc/internal/adapters/token"
	"github.com/flixbase/authsvc/internal/data"
	"github.com/flixbase/authsvc/internal/service"
)

// ServiceDeps contains the shared infrastructure used to build services.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildAuthService wires the stores and crypto adapters into the auth service.
// The token configuration object is passed down explicitly; there is no
// process-wide signing state.
func BuildAuthService(deps *ServiceDeps) *service.AuthService {
	users := data.NewUserRepo(deps.DB)
	sessions := redisadapter.NewSessionStore(deps.RedisClient, deps.Config.Token.Validity)

	return service.NewAuthService(service.AuthServiceOptions{
		Stores: service.StoreOptions{
			Users:    users,
			Sessions: sessions,
		},
		Crypto: service.CryptoOptions{
			Hasher: bcryptadapter.NewHasher(),
			Tokens: tokenadapter.NewService(deps.Config.Token),
		},
	})
}
