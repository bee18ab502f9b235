package main

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"covenant/pkg/bdoclient"
	"covenant/pkg/config"
	"covenant/pkg/contractstore"
	"covenant/pkg/covenant"
	"covenant/pkg/keyregistry"
	"covenant/pkg/logging"
	"covenant/pkg/spellrouter"
	"covenant/pkg/store"
	"covenant/pkg/userstore"
	"covenant/services/covenant/internal/api"
	"covenant/services/covenant/internal/integrity"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogDir)
	defer log.Sync()

	layout := store.MustDataDir()
	localStore := contractstore.New(layout, log)
	keys := keyregistry.New(layout)
	users := userstore.New(layout)
	remote := bdoclient.New(cfg.RemoteURL)
	replicated := covenant.NewReplicatedStore(localStore, remote, keys, log)
	spells := spellrouter.New(replicated, users)

	sweep := &integrity.Sweep{Keys: keys, Log: log}
	sweep.Start()

	h := &api.Handlers{
		Store:  replicated,
		Users:  users,
		Spells: spells,
		Log:    log,
	}

	r := chi.NewRouter()
	r.Get("/health", h.Health)

	r.Route("/user", func(u chi.Router) {
		u.Put("/create", h.CreateUser)
		u.Get("/{uuid}", h.GetUser)
	})

	r.Route("/contract", func(c chi.Router) {
		c.Post("/", h.CreateContract)
		c.Get("/{uuid}", h.GetContract)
		c.Put("/{uuid}", h.UpdateContract)
		c.Put("/{uuid}/sign", h.SignStep)
		c.Delete("/{uuid}", h.DeleteContract)
	})
	r.Get("/contracts", h.ListContracts)

	r.Post("/magic/spell/{name}", h.CastSpell)

	log.Infow("covenant server starting", "port", cfg.Port, "env", cfg.Env, "data_dir", cfg.DataDir)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalw("server exited", "err", err)
	}
	fmt.Println("covenant server stopped")
}
