package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// stateView is the part of the server's overview the admin prints.
type stateView struct {
	WorldID string `json:"world_id"`
	Seq     uint64 `json:"seq"`
	Status  struct {
		Points int `json:"points"`
	} `json:"status"`
	Metrics struct {
		Caches        int    `json:"caches"`
		CoinsInCaches int    `json:"coins_in_caches"`
		CoinsHeld     int    `json:"coins_held"`
		Minted        int    `json:"minted"`
		Sessions      int    `json:"sessions"`
		Accepted      uint64 `json:"accepted"`
		Rejected      uint64 `json:"rejected"`
	} `json:"metrics"`
}

type snapshotReply struct {
	OK    bool   `json:"ok"`
	Seq   uint64 `json:"seq"`
	Error string `json:"error,omitempty"`
}

func stateCmd(args []string) {
	fs := flag.NewFlagSet("state", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	raw := fs.Bool("raw", false, "print the overview JSON as-is")
	_ = fs.Parse(args)

	b, err := adminDo(&http.Client{Timeout: 5 * time.Second}, http.MethodGet, *baseURL, "/admin/v1/state")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *raw {
		fmt.Println(string(b))
		return
	}
	var st stateView
	if err := json.Unmarshal(b, &st); err != nil {
		fmt.Fprintln(os.Stderr, "decode state:", err)
		os.Exit(1)
	}
	fmt.Println(formatState(st))
}

func formatState(st stateView) string {
	m := st.Metrics
	return fmt.Sprintf("world=%s seq=%d sessions=%d caches=%d coins_in_caches=%d held=%d minted=%d points=%d accepted=%d rejected=%d",
		st.WorldID, st.Seq, m.Sessions, m.Caches, m.CoinsInCaches, m.CoinsHeld, m.Minted, st.Status.Points, m.Accepted, m.Rejected)
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	b, err := adminDo(&http.Client{Timeout: 10 * time.Second}, http.MethodPost, *baseURL, "/admin/v1/snapshot")
	var rep snapshotReply
	if jerr := json.Unmarshal(b, &rep); jerr == nil && rep.Error != "" {
		fmt.Fprintln(os.Stderr, "snapshot:", rep.Error)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("snapshot requested at seq %d\n", rep.Seq)
}

func metricsCmd(args []string) {
	fs := flag.NewFlagSet("metrics", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	b, err := adminDo(&http.Client{Timeout: 5 * time.Second}, http.MethodGet, *baseURL, "/metrics")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Print(string(b))
}

// adminDo returns the body even on a non-2xx status so callers can print
// the server's error.
func adminDo(cl *http.Client, method, baseURL, path string) ([]byte, error) {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/") + path
	req, err := http.NewRequest(method, u, nil)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	resp, err := cl.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return b, fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	return b, nil
}
