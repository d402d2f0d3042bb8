// Command fakebackend serves a dashboard backend with synthetic apps and
// metrics so hivewatch can be run locally. Usage:
//
//	go run ./demo/fakebackend --listen 127.0.0.1:9000 --apps nodeos,abicodec
package main

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	pb "github.com/selemilka/hivewatch/api/dashboardpb"
	"github.com/selemilka/hivewatch/internal/dashboardtest"
	"github.com/selemilka/hivewatch/internal/hwlog"
	"github.com/selemilka/hivewatch/internal/tracing"
)

func main() {
	listenAddr := flag.String("listen", "127.0.0.1:9000", "gRPC listen address (host:port or unix:///path)")
	apps := flag.StringSlice("apps", []string{"nodeos", "abicodec", "search-indexer"}, "app ids to report")
	polling := flag.Duration("polling", time.Second, "interval between metric batches")
	flap := flag.Duration("flap", 0, "drop all streams at this interval (0 disables)")
	traceDir := flag.String("trace-dir", "", "write span JSONL files to this directory")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	if err := hwlog.Init(*logLevel, ""); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := hwlog.For("fakebackend")

	shutdownTracing, err := tracing.Setup(*traceDir, "fakebackend", "local")
	if err != nil {
		log.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	lis, err := listen(*listenAddr)
	if err != nil {
		log.Error("listen failed", "addr", *listenAddr, "error", err)
		os.Exit(1)
	}

	b := dashboardtest.NewBackend()
	var infos []*pb.AppInfo
	for _, id := range *apps {
		if id == "" {
			continue
		}
		infos = append(infos, &pb.AppInfo{ID: id, Title: title(id), Status: pb.AppStatusRunning})
	}
	b.SetApps(infos...)
	srv := dashboardtest.Serve(lis, b)
	log.Info("fake backend listening", "addr", srv.Addr, "apps", len(infos))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go emitMetrics(ctx, b, infos, *polling)
	if *flap > 0 {
		go flapStreams(ctx, b, *flap)
	}

	<-ctx.Done()
	log.Info("shutting down")
	srv.Stop()
}

// emitMetrics pushes one head-block and one drift sample per app every
// interval. Head blocks advance at two per second; drift wanders around
// half a second and occasionally goes negative.
func emitMetrics(ctx context.Context, b *dashboardtest.Backend, apps []*pb.AppInfo, every time.Duration) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	head := make(map[string]float64, len(apps))
	for _, a := range apps {
		head[a.ID] = float64(1_000_000 + rng.Intn(1000))
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			for _, a := range apps {
				head[a.ID] += 2 * every.Seconds()
				b.PushMetrics(&pb.AppMetricsResponse{
					ID:    a.ID,
					Title: a.Title,
					Metrics: []*pb.Metric{
						{Timestamp: now, Value: head[a.ID], Type: pb.MetricTypeHeadBlockNumber},
						{Timestamp: now, Value: 0.5 + rng.NormFloat64()*0.3, Type: pb.MetricTypeHeadBlockTimeDrift},
					},
				})
			}
		}
	}
}

func flapStreams(ctx context.Context, b *dashboardtest.Backend, every time.Duration) {
	log := hwlog.For("fakebackend")
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Info("dropping streams", "status", b.StatusStreams(), "metrics", b.MetricsStreams())
			b.DropStreams()
		}
	}
}

func title(id string) string {
	words := strings.Split(id, "-")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// listen creates a net.Listener for TCP or unix socket addresses.
func listen(addr string) (net.Listener, error) {
	if strings.HasPrefix(addr, "unix://") {
		path := strings.TrimPrefix(addr, "unix://")
		// Remove stale socket file.
		os.Remove(path)
		return net.Listen("unix", path)
	}
	return net.Listen("tcp", addr)
}
