package main

import (
	"github.com/jnovack/flag"
)

type opt struct {
	port uint

	sourcesfile string
	usemock     bool
	mockseed    int64
	authtoken   string

	pulsarurl      string
	pulsartopic    string
	pulsarname     string
	eventqueuesize uint

	pprofon       bool
	pprofdir      string
	pprofduration uint

	activate_observe_processing_time bool

	loglevel string
}

func from_args() opt {

	var opt opt

	flag.UintVar(&opt.port, "port", 9876, "HTTP port")

	flag.StringVar(&opt.sourcesfile, "sources_file", "", "YAML file with the upstream urls and extract program (built-in defaults when empty)")
	flag.BoolVar(&opt.usemock, "use_mock", true, "Generate test data instead of calling the upstream service")
	flag.Int64Var(&opt.mockseed, "mock_seed", 1, "Seed for the test data generator")
	flag.StringVar(&opt.authtoken, "auth_token", "", "Bearer token for the upstream service (overrides the sources file)")

	flag.StringVar(&opt.pulsarurl, "pulsar_url", "", "Pulsar address for window update events (disabled when empty)")
	flag.StringVar(&opt.pulsartopic, "pulsar_topic", "persistent://public/default/windows", "Destination topic for window update events")
	flag.StringVar(&opt.pulsarname, "pulsar_name", "average_calculator_producer", "Pulsar producer name")
	flag.UintVar(&opt.eventqueuesize, "event_queue_size", 2000, "Window events buffered before dropping")

	flag.BoolVar(&opt.pprofon, "pprof_on", false, "Profoling on?")
	flag.StringVar(&opt.pprofdir, "pprof_dir", "./pprof", "Directory for pprof file")
	flag.UintVar(&opt.pprofduration, "pprof_duration", 60*2, "Number of seconds to run pprof")

	flag.BoolVar(&opt.activate_observe_processing_time, "activate_timing_collection", false, "Is the collection by prometheus of fetch time on")

	flag.StringVar(&opt.loglevel, "log_level", "info", "Logging level: panic - fatal - error - warn - info - debug - trace")

	flag.Parse()

	return opt

}
