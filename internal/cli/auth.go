package cli

import (
	"bufio"
	"fmt"
	"net/url"
	"strings"

	"github.com/jbaldivieso/coach/internal/credentials"
	"github.com/jbaldivieso/coach/internal/strava"
	"github.com/spf13/cobra"
)

// NewAuthCommand creates the one-time interactive authorization command.
func NewAuthCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize coach against the Strava API (one-time setup)",
		Long: `Walk through the one-time Strava authorization. Visit the printed URL,
approve access, then paste the localhost URL your browser was redirected to.
Both tokens are written to the credential file; re-run this if a sync ever
reports that the refresh token was rejected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := credentials.Load(rootOpts.EnvFile)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			cfg := strava.NewOauthConfig(creds.ClientID, creds.ClientSecret)

			fmt.Fprintln(out, "Visit this URL to authorize access:")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "  "+cfg.AuthCodeURL(""))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "After authorizing you will be redirected to a localhost URL.")
			fmt.Fprint(out, "Paste the entire redirect URL here: ")

			reader := bufio.NewReader(cmd.InOrStdin())
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading redirect URL: %w", err)
			}

			redirect, err := url.Parse(strings.TrimSpace(line))
			if err != nil {
				return fmt.Errorf("parsing redirect URL: %w", err)
			}
			code := redirect.Query().Get("code")
			if code == "" {
				return fmt.Errorf("no authorization code found in %q, please try again", strings.TrimSpace(line))
			}

			token, err := cfg.Exchange(cmd.Context(), code)
			if err != nil {
				return fmt.Errorf("exchanging authorization code: %w", err)
			}

			if err := credentials.SaveTokens(rootOpts.EnvFile, token.AccessToken, token.RefreshToken); err != nil {
				return err
			}

			fmt.Fprintln(out, "Tokens saved to", rootOpts.EnvFile)
			if athlete, ok := token.Extra("athlete").(map[string]any); ok {
				fmt.Fprintf(out, "Authorized as %v %v.\n", athlete["firstname"], athlete["lastname"])
			}
			fmt.Fprintln(out, "You're all set! Run `coach sync` to fetch your activities.")
			return nil
		},
	}
}
