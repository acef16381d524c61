package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"guest-portal/portal/internal/controller"
	apiHandler "guest-portal/portal/internal/handler/api"
	uiHandler "guest-portal/portal/internal/handler/ui"
	"guest-portal/portal/internal/infra"
	"guest-portal/portal/internal/logging"
	appmw "guest-portal/portal/internal/middleware"
	"guest-portal/portal/internal/repository"
	"guest-portal/portal/internal/service"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the captive portal",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := infra.OpenDB(env.DBPath)
			if err != nil {
				return err
			}
			if err := infra.Migrate(db); err != nil {
				return err
			}
			repo := repository.NewGormRepository(db)

			clients := controller.NewFactory(env.Controller(), logger.Named("controller"))
			controllers := service.FromClientFactory(clients)
			authorizer := service.NewAuthorizer(repo, controllers, env.GuestMinutes, logger.Named("authorizer"))

			ui, err := uiHandler.NewHandler(repo, authorizer, logger.Named("ui"))
			if err != nil {
				return err
			}
			api := apiHandler.NewHandler(apiHandler.Deps{
				Repo:        repo,
				Authorizer:  authorizer,
				DB:          service.PingFunc(repo.Ping),
				Controllers: controllers,
				Status:      service.StatusFromClientFactory(clients),
				AdminUser:   env.AdminUser,
				AdminPass:   env.AdminPass,
			})

			r := chi.NewRouter()
			r.Use(chimw.RequestID)
			r.Use(chimw.RealIP)
			r.Use(logging.Requests(logger.Named("http")))
			r.Use(chimw.Recoverer)

			api.RegisterRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(appmw.BasicAuth(env.AdminUser, env.AdminPass))
				r.Mount("/admin", ui.AdminRoutes())
			})
			r.Mount("/", ui.Routes())

			srv := &http.Server{
				Addr:              env.ListenAddr,
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx := cmd.Context()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("portal listening",
					zap.String("addr", env.ListenAddr),
					zap.String("controller", env.ControllerURL),
					zap.String("site", env.ControllerSite),
					zap.Bool("admin", env.AdminEnabled()))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (PORTAL_ADDR)")
	cmd.Flags().String("db", "", "sqlite database path (PORTAL_DB_PATH)")
	cmd.Flags().Int("guest-minutes", 0, "guest authorization duration in minutes (PORTAL_GUEST_MINUTES)")

	return cmd
}
