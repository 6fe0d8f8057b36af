package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	pulsar_log "github.com/apache/pulsar-client-go/pulsar/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"example.com/average-calculator/src/flow"
	"example.com/average-calculator/src/prom_metrics"
	"example.com/average-calculator/src/server"
	"example.com/average-calculator/src/store"
	"example.com/average-calculator/src/store/memory_store"
)

func logging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	l, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Errorf("Failed parse log level. Reason: %+v", err)
	} else {
		logrus.SetLevel(l)
	}
	if l < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
}

func new_client(url string) (pulsar.Client, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})

	return pulsar.NewClient(pulsar.ClientOptions{
		URL:    url,
		Logger: pulsar_log.NewLoggerWithLogrus(log),
	})
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debugf("no .env file loaded: %v", err)
	}

	opt := from_args()
	logging(opt.loglevel)
	logrus.Infof("%+v", opt)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := prom_metrics.New(opt.activate_observe_processing_time)

	number_source, err := new_source(opt)
	if err != nil {
		logrus.Fatalln("Failed create number source. Reason: ", err)
	}

	var publisher flow.Publisher
	shutdown_events := func() {}
	if opt.pulsarurl != "" {
		client, err := new_client(opt.pulsarurl)
		if err != nil {
			logrus.Fatalln("Failed connect to pulsar. Reason: ", err)
		}

		producer, err := client.CreateProducer(pulsar.ProducerOptions{
			Topic: opt.pulsartopic,
			Name:  opt.pulsarname,
		})
		if err != nil {
			client.Close()
			logrus.Fatalln("Failed create producer. Reason: ", err)
		}

		events := flow.NewChannelPublisher(int(opt.eventqueuesize), metrics)
		var producer_wg sync.WaitGroup
		producer_wg.Add(1)
		go func() {
			defer producer_wg.Done()
			flow.Producer(events.Events(), producer, metrics)
		}()
		publisher = events

		// queued events are handed to the producer before it is flushed and closed
		shutdown_events = func() {
			events.Close()
			producer_wg.Wait()
			if err := producer.Flush(); err != nil {
				logrus.Warnf("producer flush: %+v", err)
			}
			producer.Close()
			client.Close()
		}
	}
	defer shutdown_events()

	windows := memory_store.New_memory_store(store.WindowCapacity)
	handler := flow.NewHandler(windows, number_source, metrics, publisher)
	srv := server.New(handler, metrics.Handler())

	if opt.pprofon {
		go func() {
			if err := activate_profiling(ctx, opt.pprofdir, time.Duration(opt.pprofduration)*time.Second); err != nil {
				logrus.Errorf("profiling: %+v", err)
			}
		}()
	}

	if err := srv.Run(ctx, fmt.Sprintf(":%d", opt.port)); err != nil {
		logrus.Errorf("server: %+v", err)
	}
}
