package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// warehousePool opens the warehouse connection pool from config.
func warehousePool(ctx context.Context) (*pgxpool.Pool, error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, eris.New("store.database_url is not configured")
	}

	pool, err := pgxpool.New(ctx, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "create warehouse pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "ping warehouse")
	}
	return pool, nil
}

// promptEnter blocks until the operator presses Enter.
func promptEnter(message string) {
	fmt.Print(message)
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}

// promptYesNo blocks on a y/n question and returns the answer.
func promptYesNo(message string) bool {
	fmt.Printf("%s (y/n): ", message)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}
