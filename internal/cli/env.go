package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"eoreview/internal/config"
	"eoreview/internal/content"
	"eoreview/internal/logging"
	"eoreview/internal/model"
	"eoreview/internal/remote"
	"eoreview/internal/store"
)

// env is everything a command needs: resolved config, the preference store
// and the content and remote collaborators.
type env struct {
	cfg        *config.Config
	configPath string
	store      store.Store
	db         *store.SQLite
	prefs      *store.Prefs
	state      store.State
	loader     *content.Loader
	remote     *remote.Client
	log        *logging.Logger
}

func (e *env) Close() error {
	var err error
	if e.db != nil {
		err = e.db.Close()
	}
	if cerr := e.log.Close(); err == nil {
		err = cerr
	}
	return err
}

func (app *App) resolveConfigPath() (string, error) {
	if app.ConfigPath != "" {
		return app.ConfigPath, nil
	}
	return config.Path()
}

func (app *App) resolveDir(cfg *config.Config) (string, error) {
	if app.Dir != "" {
		return app.Dir, nil
	}
	if cfg.DataDir != "" {
		return cfg.DataDir, nil
	}
	return store.DefaultDir()
}

// open resolves config, opens the preference store and wires the content
// loader and remote client. Registry keys given as flags are stored when
// none were stored before.
func (app *App) open(ctx context.Context) (*env, error) {
	path, err := app.resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	dir, err := app.resolveDir(cfg)
	if err != nil {
		return nil, err
	}
	s := store.Store{Dir: dir}
	if err := s.Ensure(); err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if app.LogLevel != "" {
		level = app.LogLevel
	}
	e := &env{cfg: cfg, configPath: path, store: s, log: logging.New(s.LogDir(), level)}

	db, err := s.Open(ctx)
	if err != nil {
		_ = e.Close()
		return nil, err
	}
	e.db = db
	e.prefs = store.NewPrefs(db)
	if e.state, err = e.prefs.Load(ctx); err != nil {
		e.log.Warn("load preferences", slog.Any("err", err))
	}

	arg1, arg2 := app.Key1, app.Key2
	if arg1 == "" && arg2 == "" {
		arg1, arg2 = cfg.Keys.Key1, cfg.Keys.Key2
	}
	key1, key2, fromArgs := content.RegistryKeys(e.state.Key1, e.state.Key2, arg1, arg2)
	if fromArgs {
		if err := e.prefs.SaveRegistryKeys(key1, key2); err != nil {
			e.log.Warn("save registry keys", slog.Any("err", err))
		}
		e.state.Key1, e.state.Key2 = key1, key2
	}

	packDir := cfg.ContentDir
	if packDir == "" {
		packDir = s.PackDir()
	}
	e.loader = content.NewLoader(content.Source{Dir: packDir}, content.Credentials{
		Password: app.Password,
		Key1:     key1,
		Key2:     key2,
	})

	remoteURL := cfg.Remote.URL
	if app.RemoteURL != "" {
		remoteURL = app.RemoteURL
	}
	install, err := db.InstallID(ctx)
	if err != nil {
		e.log.Warn("install id", slog.Any("err", err))
	}
	e.remote = remote.New(remote.Options{
		URL:           remoteURL,
		Token:         cfg.Remote.Token,
		ClientVersion: cfg.Remote.ClientVersion,
		Timeout:       cfg.RemoteTimeout(),
		InstallID:     install,
	})
	e.log.Debug("session",
		slog.String("dir", dir),
		slog.String("packs", packDir),
		slog.Bool("remote", e.remote.Configured()))
	return e, nil
}

// test picks the test type a command works on: the --test flag when it is
// valid, else the stored one, else the first valid type.
func (e *env) test(flag string) (string, error) {
	valid := content.ValidTestTypes(e.state.Permitted)
	if flag != "" {
		if !content.IsValidTest(valid, flag) {
			return "", fmt.Errorf("test type %q is not permitted (run `eoreview permit`)", flag)
		}
		return flag, nil
	}
	if t := content.ChooseTest(valid, e.state.Test); t != "" {
		return t, nil
	}
	return "", errors.New("no permitted test types (run `eoreview permit` or `eoreview sync`)")
}

func (e *env) items(ctx context.Context, test string) ([]model.Item, error) {
	items, err := e.loader.Load(ctx, test)
	if err != nil {
		e.log.Warn("load content", slog.String("test", test), slog.Any("err", err))
		return nil, explain(err)
	}
	return items, nil
}

func (app *App) withEnv(ctx context.Context, fn func(*env) error) error {
	e, err := app.open(ctx)
	if err != nil {
		return err
	}
	defer e.Close()
	return fn(e)
}
