package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"geocoin.ai/internal/config"
	"geocoin.ai/internal/persistence/indexdb"
	persistlog "geocoin.ai/internal/persistence/log"
	"geocoin.ai/internal/persistence/snapshot"
	"geocoin.ai/internal/sim/tuning"
	"geocoin.ai/internal/sim/world"
	"geocoin.ai/internal/transport/api"
	"geocoin.ai/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "", "world id (default: from tuning)")
		seed       = flag.Int64("seed", 0, "luck seed (0: use tuning)")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite action index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	env, err := config.LoadServerEnv()
	if err != nil {
		logger.Fatalf("load env: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	if *worldID != "" {
		tune.WorldID = *worldID
	}
	if *seed != 0 {
		tune.Seed = *seed
	}

	w, err := world.New(world.ConfigFromTuning(tune))
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	logger.Printf("world=%s caches=%d coins=%d digest=%s", w.ID(), len(w.CacheKeys()), w.MintedCoins(), w.Digest())

	worldDir := filepath.Join(*dataDir, "worlds", w.ID())
	_ = os.MkdirAll(worldDir, 0o755)

	// Optional read-model index (does not affect game state).
	idx, err := openRuntimeIndex(worldDir, env.IndexBackend, *disableDB)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertTuning(w.ID(), tune); err != nil {
			logger.Printf("index backend: upsert tuning: %v", err)
		}
	}

	actionLog := persistlog.NewActionLogger(worldDir, w.Config().RunID)
	defer actionLog.Close()
	if idx != nil {
		w.SetActionLogger(multiActionLogger{a: actionLog, b: idx})
	} else {
		w.SetActionLogger(actionLog)
	}

	logger.Printf("run=%s actions=%s", w.Config().RunID, persistlog.ActionsDir(worldDir, w.Config().RunID))

	ctx, cancel := signalContext()
	defer cancel()

	// Runs before the deferred closes above.
	stopRuntime := startRuntime(ctx, w, worldDir, idx, logger)
	defer stopRuntime()

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newMux(w, idx, env, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

// startRuntime runs the world loop and the snapshot writer. stop cancels both
// and waits for them to return, so the action log and index they write to can
// be closed afterwards.
func startRuntime(ctx context.Context, w *world.World, worldDir string, idx runtimeIndex, logger *log.Logger) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	snapCh := make(chan snapshot.SnapshotV1, 2)
	w.SetSnapshotSink(snapCh)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		runSnapshotWriter(ctx, worldDir, snapCh, idx, logger)
	}()
	go func() {
		defer wg.Done()
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

func runSnapshotWriter(ctx context.Context, worldDir string, snapCh <-chan snapshot.SnapshotV1, idx runtimeIndex, logger *log.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-snapCh:
			path := snapshotPath(worldDir, snap.Header)
			if err := snapshot.WriteSnapshot(path, snap); err != nil {
				logger.Printf("snapshot write: %v", err)
				continue
			}
			logger.Printf("snapshot written: %s", path)
			if idx != nil {
				idx.RecordSnapshot(path, snap)
			}
		}
	}
}

// snapshotPath is <worldDir>/snapshots/<run>/<seq>.snap.zst; seq restarts
// with every run.
func snapshotPath(worldDir string, h snapshot.Header) string {
	return filepath.Join(worldDir, "snapshots", h.RunID, fmt.Sprintf("%d.snap.zst", h.Seq))
}

func newMux(w *world.World, idx runtimeIndex, env config.ServerEnv, logger *log.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		var st *indexdb.Stats
		if idx != nil {
			s := idx.Stats()
			st = &s
		}
		writeMetrics(rw, w.ID(), w.Metrics(), st)
	})

	if env.AdminHTTPEnabled() {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			ov, err := w.Overview(r.Context())
			if err != nil {
				http.Error(rw, err.Error(), http.StatusServiceUnavailable)
				return
			}
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(ov)
		})
		mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			ctx2, cancel2 := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel2()
			seq, err := w.RequestSnapshot(ctx2)
			rw.Header().Set("Content-Type", "application/json")
			if err != nil {
				rw.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "seq": seq, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "seq": seq})
		})
	} else {
		logger.Printf("admin endpoints disabled (GEOCOIN_ENABLE_ADMIN_HTTP=false)")
	}
	if env.EnablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger, env.AllowedOrigin).Handler())

	var history api.History
	if idx != nil {
		history = idx
	}
	mux.Handle("/v1/", api.NewServer(w, history, logger).Routes())
	return mux
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
