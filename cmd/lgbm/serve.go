package main

import (
	"fmt"
	"net"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/golgbm/pkg/errors"
	"github.com/YuminosukeSato/golgbm/server"
)

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve predictions from a saved model over HTTP",
		Example: `  lgbm serve --model model.txt --addr 127.0.0.1:8080
  curl -d '{"rows": [[0.1, 0.2]]}' http://127.0.0.1:8080/api/predict`,
		Args: cobra.NoArgs,
		RunE: c.serveHandler,
	}
	cmd.Flags().String("model", "model.txt", "Model file")
	cmd.Flags().String("addr", "127.0.0.1:8080", "Listen address")
	cmd.Flags().Int("max-rows", server.DefaultMaxRows, "Maximum rows per predict request")
	cmd.Flags().StringSlice("allow-origin", nil, "Enable CORS for this origin (repeatable, \"*\" for any)")
	return cmd
}

func checkOrigins(origins []string) error {
	for _, o := range origins {
		if o != "*" && !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://") {
			return errors.NewValidationError("allow-origin", "origin must be \"*\" or start with http:// or https://", o)
		}
	}
	return nil
}

func (c *cli) serveHandler(cmd *cobra.Command, args []string) error {
	origins, _ := cmd.Flags().GetStringSlice("allow-origin")
	if err := checkOrigins(origins); err != nil {
		return err
	}

	modelPath, _ := cmd.Flags().GetString("model")
	booster, err := c.loadBooster(modelPath)
	if err != nil {
		return err
	}
	defer booster.Close()

	s, err := server.New(booster)
	if err != nil {
		return err
	}
	s.MaxRows, _ = cmd.Flags().GetInt("max-rows")
	s.AllowOrigins = origins

	addr, _ := cmd.Flags().GetString("addr")
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", addr)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s (%d features) on http://%s\n", modelPath, s.Info().NumFeature, ln.Addr())
	return server.Serve(cmd.Context(), ln, s)
}
