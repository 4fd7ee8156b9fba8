package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ts2rs/ts2rs/internal/server"
)

type ServeCmd struct {
	Addr        string        `help:"Address to listen on." default:"localhost:8080"`
	Timeout     time.Duration `help:"Time limit for one compilation." default:"10s"`
	MaxBody     int64         `help:"Largest accepted request body in bytes." default:"2097152" name:"max-body"`
	CORSOrigins []string      `help:"Origins allowed to call the server from a browser (* for any)." name:"cors-origin" sep:","`
}

func (c *ServeCmd) handler(env *Env) http.Handler {
	opts := server.Options{
		Logger:       env.Logger,
		MaxBodyBytes: c.MaxBody,
		Timeout:      c.Timeout,
	}
	if len(c.CORSOrigins) > 0 {
		opts.CORS = &server.CORSConfig{Origins: c.CORSOrigins, MaxAge: time.Hour}
	}
	return server.New(opts).Handler()
}

func (c *ServeCmd) Run(env *Env) error {
	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           c.handler(env),
		ReadHeaderTimeout: 5 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		fmt.Fprintf(env.Stderr, "ts2rs: listening on http://%s\n", c.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
