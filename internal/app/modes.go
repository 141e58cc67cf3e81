package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/FightFi/booster/internal/config"
	"github.com/FightFi/booster/internal/domain"
	"github.com/FightFi/booster/internal/engine"
	"github.com/FightFi/booster/internal/notify"
	"github.com/FightFi/booster/internal/server"
	"github.com/FightFi/booster/internal/server/handler"
	"github.com/FightFi/booster/internal/server/ws"
	"github.com/FightFi/booster/internal/service"
	"github.com/FightFi/booster/internal/token"
	"github.com/FightFi/booster/internal/verifier"
)

// ServeMode runs the settlement engine behind the HTTP and WebSocket API.
// When postgres is enabled the engine is restored from the stores on boot and
// a final snapshot is persisted on shutdown.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	eng, err := a.buildEngine()
	if err != nil {
		return fmt.Errorf("serve mode: %w", err)
	}

	svc := service.NewBoosterService(
		eng,
		deps.Events, deps.Fights, deps.Boosts, deps.Audit,
		deps.Quotes, deps.Bus, deps.Locks,
		a.logger,
	)

	if a.cfg.Postgres.Enabled {
		if err := svc.Restore(ctx); err != nil {
			return fmt.Errorf("serve mode: restore engine state: %w", err)
		}
	}

	var archiveSvc *service.ArchiveService
	if deps.Archiver != nil {
		archiveSvc = service.NewArchiveService(
			deps.Archiver,
			deps.Events, deps.Fights, deps.Boosts, deps.Audit,
			deps.Bus,
			a.logger,
		)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		svc.Start(ctx)
		return ctx.Err()
	})

	var hub *ws.Hub
	if deps.Bus != nil {
		hub = ws.NewHub(deps.Bus, deps.Streams, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	if a.cfg.Alerts.Enabled && deps.Bus != nil && len(deps.Senders) > 0 {
		relay := notify.NewRelay(
			deps.Bus,
			service.NotificationChannel,
			deps.Senders,
			alertTypes(a.cfg.Alerts.Events),
			a.logger,
		)
		g.Go(func() error {
			return relay.Run(ctx)
		})
	}

	if a.cfg.Server.Enabled {
		handlers := server.Handlers{
			Health: handler.NewHealthHandler(deps.Checks, a.logger),
			Events: handler.NewEventHandler(svc, eventArchiver(archiveSvc), a.logger),
			Fights: handler.NewFightHandler(svc, a.logger),
			Boosts: handler.NewBoostHandler(svc, a.logger),
			Claims: handler.NewClaimHandler(svc, a.logger),
			Score:  handler.NewScoreHandler(svc, a.logger),
			Audit:  handler.NewAuditHandler(svc, a.logger),
		}
		if deps.BlobReader != nil {
			handlers.Archives = handler.NewArchiveHandler(deps.BlobReader, a.logger)
		}

		srv := server.NewServer(server.Config{
			Port:               a.cfg.Server.Port,
			CORSOrigins:        a.cfg.Server.CORSOrigins,
			OperatorKeys:       a.cfg.Server.OperatorKeys,
			SignatureTTL:       time.Duration(a.cfg.Server.SignatureTTLSeconds) * time.Second,
			RateLimitPerMinute: a.cfg.Server.RateLimitPerMinute,
		}, handlers, hub, deps.Limiter, a.logger)

		g.Go(srv.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		})
	}

	err = g.Wait()

	// The context driving the errgroup is gone; snapshot with a fresh one.
	if a.cfg.Postgres.Enabled {
		snapCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if perr := svc.PersistSnapshot(snapCtx); perr != nil {
			a.logger.Error("final snapshot failed", slog.String("error", perr.Error()))
		}
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// VerifyMode recomputes the scoring aggregates of every resolved fight from
// the boost records and reports mismatches against what operators submitted.
func (a *App) VerifyMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting verify mode")

	v := verifier.New(deps.Fights, deps.Boosts, a.logger)

	events, err := deps.Events.List(ctx, domain.ListOpts{})
	if err != nil {
		return fmt.Errorf("verify mode: list events: %w", err)
	}

	var checked, mismatched int
	for _, ev := range events {
		reports, err := v.VerifyEvent(ctx, ev.ID)
		if err != nil {
			return fmt.Errorf("verify mode: event %s: %w", ev.ID, err)
		}
		for _, r := range reports {
			checked++
			if !r.Clean() {
				mismatched++
			}
		}
	}

	a.logger.InfoContext(ctx, "verification complete",
		slog.Int("events", len(events)),
		slog.Int("fights_checked", checked),
		slog.Int("mismatched", mismatched),
	)
	if mismatched > 0 {
		return fmt.Errorf("verify mode: %d fight(s) with mismatched aggregates", mismatched)
	}
	return nil
}

// buildEngine seeds the value ledger from configuration and constructs the
// engine with its admin and operator capability sets.
func (a *App) buildEngine() (*engine.Engine, error) {
	ledger := token.NewLedger()
	for _, season := range a.cfg.Ledger.OpenSeasons {
		ledger.OpenSeason(season)
	}

	account := common.HexToAddress(a.cfg.Engine.Account)
	ledger.GrantAgent(account)

	admin, err := rootAdmin(a.cfg.Engine)
	if err != nil {
		return nil, err
	}

	eng := engine.New(engine.Config{
		Account:           account,
		MinStake:          a.cfg.Engine.MinStake,
		MaxStake:          a.cfg.Engine.MaxStake,
		MaxFightsPerEvent: a.cfg.Engine.MaxFightsPerEvent,
	}, ledger.Bind(account), admin)

	for _, op := range a.cfg.Engine.Operators {
		addr := common.HexToAddress(op)
		if addr == admin {
			continue
		}
		if err := eng.AddOperator(admin, addr); err != nil {
			return nil, fmt.Errorf("grant operator %s: %w", addr.Hex(), err)
		}
	}
	return eng, nil
}

// rootAdmin picks the engine's founding admin: the first configured admin,
// falling back to the first operator.
func rootAdmin(cfg config.EngineConfig) (common.Address, error) {
	if len(cfg.Admins) > 0 {
		return common.HexToAddress(cfg.Admins[0]), nil
	}
	if len(cfg.Operators) > 0 {
		return common.HexToAddress(cfg.Operators[0]), nil
	}
	return common.Address{}, fmt.Errorf("no admin or operator address configured")
}

// eventArchiver adapts a possibly-nil *ArchiveService to the handler
// interface without producing a non-nil interface around a nil pointer.
func eventArchiver(svc *service.ArchiveService) handler.EventArchiver {
	if svc == nil {
		return nil
	}
	return svc
}

// alertTypes converts configured event names to notification types. Unknown
// names are kept as-is; the relay simply never matches them.
func alertTypes(names []string) []domain.NotificationType {
	out := make([]domain.NotificationType, 0, len(names))
	for _, n := range names {
		out = append(out, domain.NotificationType(n))
	}
	return out
}
