package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/coregx/sqladvisor/advisorhttp"
	"github.com/coregx/sqladvisor/internal/engine"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Serve starts an HTTP server exposing POST /api/v1/analyze for the single
database configured by --driver/--dsn. Requests with any connectionId are
routed to that database.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8080", "Listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	eng, db, err := newEngine("http")
	if err != nil {
		return err
	}
	defer db.Close()

	resolver := advisorhttp.ResolverFunc(
		func(_ context.Context, _ string) (*engine.Engine, error) {
			return eng, nil
		})

	handler := advisorhttp.NewHandler(resolver, nil)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Mount("/api/v1", handler.Routes())

	server := &http.Server{
		Addr:              flagAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", flagAddr)
	return server.ListenAndServe()
}
