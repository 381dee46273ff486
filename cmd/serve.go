package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/irscelearn/ce-reporter/internal/edit"
	"github.com/irscelearn/ce-reporter/internal/header"
	"github.com/irscelearn/ce-reporter/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the edit-event server",
	Long:  "Accepts cell-edit events from the workbook host, runs the edit rules, and applies the resulting effects to the workbook and the validation webhook.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		// One workbook writer at a time; edits serialize here.
		var mu sync.Mutex

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"POST", "GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		r.Post("/events/edit", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Table  string             `json:"table"`
				Row    int                `json:"row"`
				Field  string             `json:"field"`
				Old    string             `json:"old"`
				New    string             `json:"new"`
				Roster *model.RosterEntry `json:"roster,omitempty"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
				return
			}
			if body.Table == "" || body.Field == "" {
				http.Error(w, `{"error":"table and field are required"}`, http.StatusBadRequest)
				return
			}

			effects := edit.ApplyEdit(edit.Edit{
				Table:  edit.Table(body.Table),
				Row:    body.Row,
				Field:  header.Field(body.Field),
				Old:    body.Old,
				New:    body.New,
				Roster: body.Roster,
			})

			applied := 0
			if len(effects) > 0 {
				mu.Lock()
				eng, wb, err := openEngine()
				if err == nil {
					var notify []model.RosterEntry
					notify, err = eng.ApplyEditEffects(effects)
					if err == nil {
						err = wb.Save()
					}
					if err == nil {
						notifyValidated(req.Context(), st, notify)
						applied = len(effects)
					}
				}
				mu.Unlock()
				if err != nil {
					zap.L().Error("edit event failed",
						zap.String("table", body.Table), zap.String("field", body.Field),
						zap.Error(err))
					http.Error(w, `{"error":"edit could not be applied"}`, http.StatusInternalServerError)
					return
				}
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]int{"effects": applied})
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting edit-event server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
