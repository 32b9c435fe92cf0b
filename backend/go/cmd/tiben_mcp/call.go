package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tiben-mcp/backend/go/internal/config"
	"tiben-mcp/backend/go/pkg/logger"
	"tiben-mcp/backend/go/pkg/mcpclient"
)

var (
	callURL       string
	callCommand   string
	callCmdArgs   []string
	callTransport string
	callContext   string
	callLimit     int
)

var callCmd = &cobra.Command{
	Use:   "call [tool] [image_url]",
	Short: "Invoke a tool once and print its text result",
	Long: `Invoke a tool once and print its text result.
Without --url or --command the tool runs in-process against the configured
backend; with --url it is sent to a running tiben-mcp server, and with
--command a tiben-mcp server is started as a subprocess over stdio.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			return err
		}
		logger.Init(logger.ParseLevel(cfg.Logger.Level), os.Stderr)

		opts := mcpclient.Options{
			ClientName:    cfg.App.Name + "-cli",
			ClientVersion: cfg.App.Version,
		}
		switch {
		case callURL != "" && callCommand != "":
			return errors.New("--url and --command are mutually exclusive")
		case callCommand != "":
			opts.Transport = mcpclient.TransportStdio
			opts.Command = callCommand
			opts.Args = callCmdArgs
		case callURL != "":
			opts.Transport = callTransport
			opts.URL = callURL
		default:
			a, err := newApp(cfg, logger.New(cfg.App.Name, "", ""))
			if err != nil {
				return err
			}
			defer a.Close()
			opts.Transport = mcpclient.TransportInProcess
			opts.Server = a.mcp
		}

		sess, err := mcpclient.Connect(cmd.Context(), opts)
		if err != nil {
			return err
		}
		defer sess.Close()

		toolArgs := map[string]any{"image_url": args[1]}
		if callContext != "" {
			toolArgs["additional_context"] = callContext
		}
		if cmd.Flags().Changed("limit") {
			toolArgs["limit"] = callLimit
		}

		text, err := sess.CallText(cmd.Context(), args[0], toolArgs)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), text)
		return nil
	},
}

func init() {
	callCmd.Flags().StringVar(&callURL, "url", "", "endpoint of a running server, e.g. http://localhost:8085/mcp")
	callCmd.Flags().StringVar(&callCommand, "command", "", "server executable to start over stdio, e.g. tiben-mcp")
	callCmd.Flags().StringSliceVar(&callCmdArgs, "command-arg", nil, "argument passed to --command (repeatable)")
	callCmd.Flags().StringVar(&callTransport, "url-transport", mcpclient.TransportHTTPStream, "transport used with --url: httpstream or sse")
	callCmd.Flags().StringVar(&callContext, "context", "", "additional_context for solve_problem_from_image")
	callCmd.Flags().IntVar(&callLimit, "limit", 1, "limit for find_similar_problems")
	rootCmd.AddCommand(callCmd)
}
