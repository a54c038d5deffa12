package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	lib "github.com/TestStacey/graphhopper"
	"github.com/TestStacey/graphhopper/config"
	"github.com/TestStacey/graphhopper/internal"
)

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func main() {
	mode := flag.String("mode", "serve", "serve|oneshot")
	configPath := flag.String("config", getEnv("PTROUTER_CONFIG", ""), "path to config.yml")
	feedID := flag.String("feed", "", "feed id from config.feeds[]")
	from := flag.String("from", "", "origin stop_id (oneshot)")
	to := flag.String("to", "", "destination stop_id (oneshot)")
	at := flag.String("time", "", "RFC 3339 departure time, or arrival time with -arriveBy (oneshot)")
	arriveBy := flag.Bool("arriveBy", false, "search backwards from the arrival time")
	profile := flag.Bool("profile", false, "return every Pareto-optimal departure")
	window := flag.Duration("window", 0, "profile window")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()
	internal.InitLogging()
	if err := config.LoadAppConfig(*configPath); err != nil {
		log.Fatalf("load config: %v", err)
	}
	if p := getEnv("PTROUTER_PORT", ""); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			log.Fatalf("PTROUTER_PORT: %v", err)
		}
		config.Config.Server.Port = port
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := internal.NewMetrics(reg)

	ctx := context.Background()
	router, err := lib.NewRouter(ctx, config.Config, metrics)
	if err != nil {
		log.Fatalf("load feeds: %v", err)
	}

	switch *mode {
	case "serve":
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		router.Start(ctx)
		srv := lib.NewServer(router, config.Config.Server, reg, metrics)
		srv.Start()
		srv.WaitForShutdown()
	case "oneshot":
		q := lib.Query{FeedID: *feedID, From: *from, To: *to, Time: time.Now(), ArriveBy: *arriveBy, Profile: *profile, ProfileWindow: *window}
		if *at != "" {
			if q.Time, err = time.Parse(time.RFC3339, *at); err != nil {
				log.Fatalf("invalid -time: %v", err)
			}
		}
		f, err := router.Feed(q.FeedID)
		if err != nil {
			log.Fatal(err)
		}
		if err := f.Cache.Refresh(ctx); err != nil {
			log.Printf("realtime refresh: %v", err)
		}
		journeys, err := router.Plan(ctx, q)
		if err != nil {
			log.Fatal(err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(journeys); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}
