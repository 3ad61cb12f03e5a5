package cli

import (
	"context"
	"sync"

	"github.com/seatbelt-tracker/seatbelt-admin/internal/apiclient"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/auth"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/identity"
	"github.com/seatbelt-tracker/seatbelt-admin/internal/session"
)

// runtime holds what commands need once the config is loaded.
type runtime struct {
	cfg      *Config
	store    session.Store
	provider *auth.Provider
	client   *apiclient.Client

	// identity is only needed to sign in, so it is built on first use
	idpOnce sync.Once
	idp     identity.Provider
	idpErr  error
}

var (
	rtMu      sync.Mutex
	currentRt *runtime
)

func newRuntime(cfg *Config) (*runtime, error) {
	store, err := session.NewFileStore(cfg.SessionFile)
	if err != nil {
		return nil, err
	}
	rt := &runtime{
		cfg:    cfg,
		store:  store,
		client: apiclient.NewClient(cfg.APIBaseURL(), store),
	}
	rt.provider = auth.NewProvider(store, identityFunc(rt.identity))
	return rt, nil
}

func (rt *runtime) identity(ctx context.Context) (identity.Provider, error) {
	rt.idpOnce.Do(func() {
		rt.idp, rt.idpErr = identity.New(ctx, rt.cfg.Identity)
	})
	return rt.idp, rt.idpErr
}

// identityFunc defers building the identity provider until the first sign in.
type identityFunc func(ctx context.Context) (identity.Provider, error)

func (f identityFunc) Authenticate(ctx context.Context, creds identity.Credentials) (*identity.Tokens, error) {
	idp, err := f(ctx)
	if err != nil {
		return nil, err
	}
	return idp.Authenticate(ctx, creds)
}

func setRuntime(rt *runtime) {
	rtMu.Lock()
	defer rtMu.Unlock()
	currentRt = rt
}

func getRuntime() *runtime {
	rtMu.Lock()
	defer rtMu.Unlock()
	return currentRt
}
