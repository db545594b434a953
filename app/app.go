package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"github.com/formwiz/form-wizard/config"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
}
