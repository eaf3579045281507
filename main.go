package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/TheFoxKD/CalendarMTUSI/browser"
	"github.com/TheFoxKD/CalendarMTUSI/config"
	"github.com/TheFoxKD/CalendarMTUSI/exporter"
	"github.com/TheFoxKD/CalendarMTUSI/googlecalendar"
	"github.com/TheFoxKD/CalendarMTUSI/logger"
	"github.com/TheFoxKD/CalendarMTUSI/scraper"
	"github.com/TheFoxKD/CalendarMTUSI/uploader"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Daemon.Enabled {
		for {
			if err := runSync(cfg, log); err != nil {
				log.Error("sync failed", zap.Error(err))
			}
			log.Info("sleeping until next sync", zap.Duration("interval", cfg.Daemon.Interval))
			time.Sleep(cfg.Daemon.Interval)
		}
	}

	if err := runSync(cfg, log); err != nil {
		log.Error("sync failed", zap.Error(err))
		os.Exit(1)
	}
}

// runSync performs one full pass: launch a browser, parse the schedule and
// hand the events to the configured sinks.
func runSync(cfg *config.Config, log *zap.Logger) error {
	session, err := browser.Launch(browser.LaunchOptions{
		Headless: cfg.Scraping.Headless,
		SlowMo:   cfg.Scraping.SlowMo,
	})
	if err != nil {
		return fmt.Errorf("launching browser: %w", err)
	}
	defer session.Close()

	s := scraper.New(session.Page(), scraper.Config{
		Email:            cfg.MTUCI.Email,
		Password:         cfg.MTUCI.Password,
		LoginURL:         cfg.MTUCI.LoginURL,
		ScheduleURL:      cfg.MTUCI.ScheduleURL,
		MaxRetries:       cfg.Scraping.MaxRetries,
		Timeout:          cfg.Scraping.Timeout,
		DefaultBuilding:  cfg.Scraping.DefaultBuilding,
		DefaultGroup:     cfg.Scraping.DefaultGroup,
		LenientTimeRange: cfg.Scraping.LenientTimeRange,
	}, log)

	events, err := s.ParseSchedule()
	if err != nil {
		return err
	}
	log.Info("schedule parsed", zap.Int("events", len(events)))

	if cfg.Google.Enabled {
		ctx := context.Background()
		svc, err := googlecalendar.New(ctx, googlecalendar.Config{
			CredentialsPath: cfg.Google.CredentialsPath,
			TokenPath:       cfg.Google.TokenPath,
			CalendarID:      cfg.Google.CalendarID,
			CalendarName:    cfg.Google.CalendarName,
		}, log)
		if err != nil {
			return fmt.Errorf("initializing calendar service: %w", err)
		}
		ids, err := svc.SyncEvents(ctx, events)
		if err != nil {
			return fmt.Errorf("syncing calendar: %w", err)
		}
		log.Info("calendar synced", zap.Int("created", len(ids)))
	}

	if cfg.Export.ICSPath != "" {
		if err := exporter.WriteFile(events, cfg.Export.ICSPath); err != nil {
			return err
		}
		log.Info("ics feed written", zap.String("path", cfg.Export.ICSPath))

		if cfg.GitHub.Token != "" {
			if err := uploader.UploadSchedule(cfg.GitHub.Token, cfg.GitHub.Repo, cfg.GitHub.Path, cfg.Export.ICSPath); err != nil {
				// the calendar sync already succeeded; the feed upload can wait
				log.Error("github upload failed", zap.Error(err))
			} else {
				log.Info("ics feed uploaded", zap.String("repo", cfg.GitHub.Repo))
			}
		}
	}

	return nil
}
