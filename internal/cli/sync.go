package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shinji-kodama/notesync/internal/config"
	"github.com/shinji-kodama/notesync/internal/logging"
	"github.com/shinji-kodama/notesync/internal/model"
	"github.com/shinji-kodama/notesync/internal/restclient"
	"github.com/shinji-kodama/notesync/internal/shopify"
	"github.com/shinji-kodama/notesync/internal/syncer"
	"github.com/shinji-kodama/notesync/internal/zendesk"
)

// syncFlags holds the flag values for the root (sync) command.
type syncFlags struct {
	// dryRun computes and prints the new note without writing it.
	dryRun bool
}

// runSync is the main logic of the root command.
//
// Steps:
//  1. Validate the ticket ID argument
//  2. Fail on any configuration problem before touching the network
//  3. Build the API clients and run the pipeline
//  4. Print the result (text or JSON)
func runSync(ctx context.Context, out io.Writer, rawTicketID string, flags *syncFlags) error {
	ticketID, err := model.ParseTicketID(rawTicketID)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "invalid ticket ID", err)
	}

	if loadErr != nil {
		return loadErr
	}

	runID = uuid.NewString()
	logger := logging.With("run_id", runID)

	s, err := newSyncer(resolved, logger)
	if err != nil {
		return err
	}

	result, err := s.Run(ctx, syncer.Request{TicketID: ticketID, DryRun: flags.dryRun})
	if err != nil {
		return err
	}

	return printSyncResult(out, result)
}

// newSyncer builds a Syncer backed by the live Zendesk and Shopify APIs.
// Both clients share one *http.Client built for this run.
func newSyncer(cfg *config.Config, logger *slog.Logger) (*syncer.Syncer, error) {
	timeout, err := cfg.HTTPTimeout()
	if err != nil {
		return nil, &model.ConfigError{Err: err}
	}
	httpCfg := restclient.DefaultConfig()
	httpCfg.Timeout = timeout
	httpClient := restclient.New(httpCfg)

	zd, err := zendesk.NewClient(zendesk.Config{
		Subdomain:  cfg.Zendesk.Subdomain,
		Email:      cfg.Zendesk.Email,
		APIToken:   cfg.Zendesk.APIToken,
		BaseURL:    cfg.Zendesk.BaseURL,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, &model.ConfigError{Err: err}
	}

	shop, err := shopify.NewClient(shopify.Config{
		Store:      cfg.Shopify.Store,
		AdminToken: cfg.Shopify.AdminToken,
		APIVersion: cfg.Shopify.APIVersion,
		BaseURL:    cfg.Shopify.BaseURL,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	if err != nil {
		return nil, &model.ConfigError{Err: err}
	}

	return syncer.New(syncer.Options{
		Comments: zd,
		Users:    zd,
		Orders:   shop,
		NewRunID: func() string { return runID },
		Logger:   logger,
	}), nil
}
