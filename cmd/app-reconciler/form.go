package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"app-reconciler/internal/fulcrum"
	"app-reconciler/internal/schema"
)

type formFlags struct {
	file string
	name string
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "form-file", "", "form definition JSON")
	cmd.Flags().StringVar(&f.name, "form-name", "", "name of the form to fetch from the API")
	cmd.MarkFlagsMutuallyExclusive("form-file", "form-name")
	cmd.MarkFlagsOneRequired("form-file", "form-name")
}

// load reads the form from its file, or fetches it by name through client.
func (f *formFlags) load(ctx context.Context, client *fulcrum.Client) (*schema.Form, error) {
	if f.file != "" {
		return schema.LoadForm(f.file)
	}

	if client == nil {
		return nil, errors.New("fetching a form needs an API client")
	}

	return client.FormByName(ctx, f.name)
}

// newClient builds the API client, asking for the API key when none is
// configured and someone can answer.
func newClient(cmd *cobra.Command) (*fulcrum.Client, error) {
	if cfg.API.APIKey == "" {
		if p := prompter(cmd); p != nil {
			key, err := p.Secret("API key: ")
			if err != nil {
				return nil, err
			}

			cfg.API.APIKey = key
		}
	}

	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	timeout := cfg.GetAPITimeout()
	if timeout <= 0 {
		timeout = time.Minute
	}

	return fulcrum.NewClient(cfg.API.BaseURL, cfg.API.APIKey, timeout, logger), nil
}
