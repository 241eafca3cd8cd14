package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sigreer/esesgod/internal/config"
	"github.com/sigreer/esesgod/internal/db"
	"github.com/sigreer/esesgod/internal/eses"
	"github.com/sigreer/esesgod/internal/lifecycle"
	"github.com/sigreer/esesgod/internal/metrics"
	"github.com/sigreer/esesgod/internal/ses"
)

// session is one enclosure opened for a command.
type session struct {
	cfg      *config.Config
	log      *slog.Logger
	device   string
	db       *db.DB
	exporter *metrics.Exporter
	rec      *lifecycle.Recorder
	enc      *eses.Enclosure
}

// addPageFlags registers --device, --config-page and the command's own
// page file flag.
func addPageFlags(cmd *cobra.Command, pageFlag, what string) {
	cmd.Flags().StringP("device", "d", "", "enclosure control device, e.g. /dev/sg3")
	cmd.Flags().String("config-page", "", "configuration page (0x01) file instead of reading the device")
	if pageFlag != "" {
		cmd.Flags().String(pageFlag, "", what+" file instead of reading the device")
	}
}

func deviceFor(cmd *cobra.Command, cfg *config.Config) string {
	if dev, _ := cmd.Flags().GetString("device"); dev != "" {
		return dev
	}
	return cfg.Enclosure.Device
}

// readPage loads a page from the file named by flag, or from the device.
func readPage(ctx context.Context, cmd *cobra.Command, device, flag string, code uint8) ([]byte, error) {
	if path, _ := cmd.Flags().GetString(flag); path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if _, err := ses.ExpectPage(buf, code); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return buf, nil
	}
	if device == "" {
		return nil, fmt.Errorf("either --device or --%s is required", flag)
	}
	return ses.ReadPage(ctx, device, code)
}

// openSession builds the enclosure from the configuration page and seeds
// its topology. With persist the decode history goes to the database.
func openSession(ctx context.Context, cmd *cobra.Command, persist bool) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	s := &session{
		cfg:      cfg,
		log:      cfg.Logger(os.Stderr, verbose),
		device:   deviceFor(cmd, cfg),
		exporter: metrics.New(),
	}

	buf, err := readPage(ctx, cmd, s.device, "config-page", ses.PageConfiguration)
	if err != nil {
		return nil, err
	}
	conf, err := ses.ParseConfigPage(buf)
	if err != nil {
		return nil, err
	}

	obs := multiObserver{s.exporter}
	var sink lifecycle.SymptomSink
	if persist && !cfg.Database.Disabled {
		s.db, err = db.New(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		sink = s.db
		obs = append(obs, dbObserver{db: s.db, log: s.log})
	}
	s.rec = lifecycle.NewRecorder(sink)

	profile := cfg.Profile()
	s.enc, err = eses.New(s.device, conf, eses.Options{
		Logger:         s.log,
		DebounceWindow: cfg.Debounce.LCCFault,
		MaxModeRetries: cfg.Retry.MaxModeRetries,
		Profile:        &profile,
		Scheduler:      s.rec,
		Observer:       obs,
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	topo := eses.DefaultTopology(conf, profile)
	if cfg.Enclosure.Topology != nil {
		topo = *cfg.Enclosure.Topology
	}
	if err := s.enc.Seed(topo); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// writeMetrics refreshes the component gauges and writes the textfile
// when one is configured.
func (s *session) writeMetrics() {
	if s.cfg.Metrics.Textfile == "" {
		return
	}
	s.exporter.UpdateComponents(s.device, s.enc.Store().Snapshot())
	if err := s.exporter.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
		s.log.Warn("writing metrics textfile", slog.String("path", s.cfg.Metrics.Textfile), slog.Any("error", err))
	}
}

func (s *session) Close() {
	if s.db != nil {
		s.db.Close()
	}
}
