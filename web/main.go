package main

import (
	"flag"

	"github.com/golang/glog"
	"golang.org/x/time/rate"

	"github.com/hectorBrown/icl-y2-project/pkg/analysis"
	"github.com/hectorBrown/icl-y2-project/web/server"
)

func main() {
	port := flag.Int("port", 8080, "Port to serve on")
	rps := flag.Float64("rps", 10, "Requests per second allowed across all clients")
	burst := flag.Int("burst", 20, "Request burst size")
	workers := flag.Int("workers", 0, "Concurrent ray workers per request (0 = one per CPU)")
	flag.Parse()
	defer glog.Flush()

	config := analysis.DefaultConfig()
	config.Workers = *workers

	webServer := server.NewServer(*port,
		server.WithRateLimit(rate.Limit(*rps), *burst),
		server.WithAnalysisConfig(config),
	)

	glog.Infof("Lens analysis web server")
	if err := webServer.Start(); err != nil {
		glog.Exitf("Error starting server: %v", err)
	}
}
