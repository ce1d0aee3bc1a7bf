package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/jrsteele09/go-qr-login-relay/internal/config"
	"github.com/jrsteele09/go-qr-login-relay/partners"
	"github.com/jrsteele09/go-qr-login-relay/relay"
	"github.com/jrsteele09/go-qr-login-relay/server"
	"github.com/jrsteele09/go-qr-login-relay/sessions"
	"github.com/jrsteele09/go-qr-login-relay/sessions/reporedis"
	"github.com/jrsteele09/go-qr-login-relay/token"
)

const sweepInterval = time.Minute

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	sessionRepo, cleanup, err := sessionStore(c)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	defer cleanup()

	partnerRepo, err := partnerRegistry(c)
	if err != nil {
		return fmt.Errorf("partner registry: %w", err)
	}

	relayOptions := []relay.ServiceOption{
		relay.WithTokenLength(c.GetTokenLength()),
		relay.WithSessionTTL(c.GetSessionTTL()),
	}
	if key := c.GetAssertionKey(); key != "" {
		relayOptions = append(relayOptions, relay.WithAssertionSigner(token.NewAssertionSigner(key, c.GetAssertionExpiry())))
	}

	relayService, err := relay.NewService(relay.Repos{
		Sessions: sessionRepo,
		Partners: partnerRepo,
	}, relayOptions...)
	if err != nil {
		return fmt.Errorf("relay.NewService: %w", err)
	}

	handler, err := server.New(c, relayService)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sweepExpiredSessions(sweeperCtx, relayService)

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// sessionStore selects Redis when configured, otherwise the in-memory store.
func sessionStore(c config.Config) (sessions.Repo, func(), error) {
	if url := c.GetRedisURL(); url != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		repo, err := reporedis.New(ctx, url, c.GetSessionTTL())
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { _ = repo.Close() }, nil
	}
	return sessions.NewInMemoryRepo(), func() {}, nil
}

func partnerRegistry(c config.Config) (partners.Repo, error) {
	path := c.GetPartnerFile()
	if path == "" {
		log.Printf("No PARTNER_FILE configured; all initiate calls will be rejected\n")
		return partners.NewInMemoryRepo(), nil
	}
	registrations, err := partners.LoadFile(path)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d partner registrations from %s\n", len(registrations), path)
	return partners.NewInMemoryRepo(registrations...), nil
}

// sweepExpiredSessions deletes expired sessions on an interval. The Redis
// store expires keys natively and sweeps zero.
func sweepExpiredSessions(ctx context.Context, relayService *relay.Service) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := relayService.SweepExpired(ctx); err != nil {
				log.Printf("Session sweep failed: %v\n", err)
			} else if n > 0 {
				log.Printf("Swept %d expired sessions\n", n)
			}
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
