package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rmax-ai/locklord/pkg/api"
	"github.com/rmax-ai/locklord/pkg/engine"
	"github.com/rmax-ai/locklord/pkg/journal"
	journalredis "github.com/rmax-ai/locklord/pkg/journal/redis"
)

func main() {
	fmt.Println(`{"level":"info","msg":"system_started","component":"locklord-d"}`)

	config, err := LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Printf(`{"level":"fatal","msg":"failed_to_load_config","error":"%v"}`+"\n", err)
		os.Exit(1)
	}

	log := journal.NewLog(config.LogCap)

	sqliteSink, err := journal.NewSQLiteSink(config.DBPath)
	if err != nil {
		fmt.Printf(`{"level":"fatal","msg":"failed_to_init_journal","error":"%v"}`+"\n", err)
		os.Exit(1)
	}
	log.AddSink(sqliteSink)
	fmt.Printf(`{"level":"info","msg":"journal_initialized","path":"%s"}`+"\n", config.DBPath)

	if config.RedisAddr != "" {
		redisClient := goredis.NewClient(&goredis.Options{Addr: config.RedisAddr})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			fmt.Printf(`{"level":"warn","msg":"redis_unreachable","addr":"%s","error":"%v"}`+"\n", config.RedisAddr, err)
		} else {
			log.AddSink(journalredis.NewSink(redisClient, "", 0))
			fmt.Printf(`{"level":"info","msg":"redis_journal_attached","addr":"%s"}`+"\n", config.RedisAddr)
		}
	}

	store := engine.NewStore(log)
	server := api.NewServer(store, config.Addr, config.Debug)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()
	fmt.Printf(`{"level":"info","msg":"api_listening","addr":"%s","debug":%t}`+"\n", config.Addr, config.Debug)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		fmt.Printf(`{"level":"info","msg":"shutdown_initiated","signal":"%s"}`+"\n", sig)
	case err := <-serverErr:
		fmt.Printf(`{"level":"fatal","msg":"server_failed","error":"%v"}`+"\n", err)
		log.Close()
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_stop_server","error":"%v"}`+"\n", err)
	}

	if err := log.Close(); err != nil {
		fmt.Printf(`{"level":"error","msg":"failed_to_close_journal","error":"%v"}`+"\n", err)
	} else {
		fmt.Println(`{"level":"info","msg":"journal_closed"}`)
	}

	fmt.Println(`{"level":"info","msg":"shutdown_complete"}`)
}
