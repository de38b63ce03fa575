package main

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/citegraph/citegraph/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the paper search and citation tree API over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, db := openWorkspace()
	defer db.Close()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	log := logrus.StandardLogger()
	if log.GetLevel() < logrus.InfoLevel {
		log.SetLevel(logrus.InfoLevel)
	}

	client := newClient(cfg)
	builder := newBuilder(db, client, cfg, false)

	addr := serveAddr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	log.WithField("addr", addr).Info("starting server")
	s := server.New(db, client, builder, log)
	return s.Run(addr)
}
