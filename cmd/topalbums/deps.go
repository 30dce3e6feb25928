package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cesargomez89/topalbums/internal/app"
	"github.com/cesargomez89/topalbums/internal/config"
	"github.com/cesargomez89/topalbums/internal/constants"
	"github.com/cesargomez89/topalbums/internal/enrich"
	"github.com/cesargomez89/topalbums/internal/httpclient"
	"github.com/cesargomez89/topalbums/internal/loader"
	"github.com/cesargomez89/topalbums/internal/lock"
	"github.com/cesargomez89/topalbums/internal/logger"
	"github.com/cesargomez89/topalbums/internal/scraper"
	"github.com/cesargomez89/topalbums/internal/spotify"
	"github.com/cesargomez89/topalbums/internal/store"
)

// deps holds the long-lived dependencies shared by every command.
type deps struct {
	Config *config.Config
	Logger *logger.Logger
	DB     *store.DB
	Locker lock.Locker

	redis *lock.RedisLocker
}

func newDeps(cfg *config.Config, log *logger.Logger) (*deps, error) {
	db, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DBDriver, err)
	}

	d := &deps{
		Config: cfg,
		Logger: log,
		DB:     db,
		Locker: lock.Nop{},
	}

	if cfg.RedisURL != "" {
		rl, err := lock.NewRedisLocker(cfg.RedisURL, cfg.LockTTL, cfg.LockTTL)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		d.redis = rl
		d.Locker = rl
		log.Info("Using redis writer lock", "key", constants.WriterLock)
	}

	return d, nil
}

// Pipeline builds the scrape, enrich and load chain from the configuration.
func (d *deps) Pipeline() *app.Pipeline {
	site := httpclient.NewClient(nil, d.Config.RequestInterval, d.Config.UserAgent)
	s := scraper.New(site, d.Config.SiteAddress, d.Logger)

	var e app.Enricher
	if d.Config.SpotifyEnabled() {
		client := spotify.NewClient(spotify.Config{
			ClientID:     d.Config.SpotifyClientID,
			ClientSecret: d.Config.SpotifyClientSecret,
			TokenURL:     d.Config.SpotifyTokenURL,
			APIURL:       d.Config.SpotifyAPIURL,
		}, httpclient.NewClient(&http.Client{Timeout: constants.DefaultHTTPTimeout}, 0, d.Config.UserAgent))
		e = enrich.NewEnricher(spotify.NewCachedClient(client, d.DB, d.Config.CacheTTL), d.Logger)
	}

	policy := store.FirstWriteWins
	if d.Config.RefreshArtistStats {
		policy = store.RefreshMutable
	}
	l := loader.New(d.DB, loader.Options{
		Logger: d.Logger,
		Locker: d.Locker,
		Policy: policy,
	})

	return app.NewPipeline(s, e, l, d.Logger)
}

func (d *deps) Close() error {
	var errs []error
	if d.redis != nil {
		errs = append(errs, d.redis.Close())
	}
	errs = append(errs, d.DB.Close())
	return errors.Join(errs...)
}
