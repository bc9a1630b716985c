package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/chain.go/pkg/config"
	fx "github.com/robotalks/chain.go/pkg/framework"
	"github.com/robotalks/chain.go/pkg/l0/exchanger"
	"github.com/robotalks/chain.go/pkg/metrics"
	"github.com/robotalks/chain.go/pkg/mqtt"
	"github.com/robotalks/chain.go/pkg/sink"
)

//go-build: CGO_ENABLED=0

func init() {
	config.SetupFlags()
}

func newHandler(name string) exchanger.Handler {
	switch name {
	case "echo":
		return exchanger.EchoHandler{}
	case "none":
		return nil
	}
	return &exchanger.LogHandler{}
}

// newSinks builds the configured sinks. Sinks doing network I/O run on
// their own goroutine added to loop.
func newSinks(conf *config.Config, x *exchanger.Exchanger, loop *fx.Loop) (sink.Multi, []io.Closer, error) {
	var sinks sink.Multi
	var closers []io.Closer
	if conf.DebugLog == "-" {
		sinks = append(sinks, sink.NewPrinter(os.Stderr))
	} else if conf.DebugLog != "" {
		p := sink.NewFilePrinter(conf.DebugLog, 10, 3)
		sinks, closers = append(sinks, p), append(closers, p)
	}
	if conf.Archive.Dir != "" {
		format, err := sink.ParseFormat(conf.Archive.Format)
		if err != nil {
			return nil, closers, err
		}
		a, err := sink.NewArchive(conf.Archive.Dir, format)
		if err != nil {
			return nil, closers, err
		}
		a.MaxFrames, a.Debug = conf.Archive.MaxFrames, os.Stderr
		sinks, closers = append(sinks, a), append(closers, a)
	}
	if conf.MQTTURL != "" {
		q, err := mqtt.NewQueueFromURL(conf.MQTTURL)
		if err != nil {
			return nil, closers, err
		}
		if err := q.Connect(); err != nil {
			return nil, closers, err
		}
		async := sink.NewAsync(sink.NewMQTT(sink.QueuePublisher(q, time.Second), x.ID), sink.DefaultQueueSize)
		loop.Add(async)
		sinks, closers = append(sinks, async), append(closers, q)
	}
	return sinks, closers, nil
}

func serveMetrics(addr string, handler http.Handler) fx.Runnable {
	return fx.NamedRun("metrics", fx.RunFunc(func(ctx context.Context) error {
		server := &http.Server{Addr: addr, Handler: handler}
		glog.Infof("metrics on %s", addr)
		err := fx.RunWithContextCancel(ctx, func() { server.Close() }, server.ListenAndServe)
		if err != nil && err != ctx.Err() {
			glog.Errorf("metrics on %s: %v", addr, err)
		}
		return err
	}))
}

func main() {
	flag.Parse()
	conf, err := config.Resolve()
	if err != nil {
		log.Fatalln(err)
	}
	x, err := conf.NewExchanger(newHandler(conf.Handler))
	if err != nil {
		log.Fatalln(err)
	}

	loop := fx.NewLoop()
	if conf.Interval > 0 {
		loop.Interval = conf.Interval
	}
	sinks, closers, err := newSinks(conf, x, loop)
	for _, closer := range closers {
		defer closer.Close()
	}
	if err != nil {
		log.Fatalln(err)
	}

	runner := fx.NewRunner().HandleSignals()
	var observers exchanger.Observers
	if len(sinks) > 0 {
		observers = append(observers, sink.NewObserver(sinks...))
	}
	if conf.MetricsAddr != "" {
		reg := metrics.NewRegistry()
		observers = append(observers, metrics.New(reg))
		runner.Go(serveMetrics(conf.MetricsAddr, metrics.Handler(reg)))
	}
	if len(observers) > 0 {
		x.Observer = observers
	}

	loop.Add(x)
	glog.Infof("device %s started", x.ID)
	if err := runner.Go(fx.NamedRun("loop", loop)).Wait(); err != nil {
		glog.Error(err)
	}
	glog.Flush()
}
