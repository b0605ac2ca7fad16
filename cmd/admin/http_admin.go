package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

func bootstrapCmd(args []string) {
	fs := flag.NewFlagSet("bootstrap", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	_ = fs.Parse(args)

	get(strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/observer/bootstrap")
}

func tileCmd(args []string) {
	fs := flag.NewFlagSet("tile", flag.ExitOnError)
	baseURL := fs.String("url", "http://127.0.0.1:8080", "server base url")
	tx := fs.Int("tx", 0, "tile x")
	tz := fs.Int("tz", 0, "tile z")
	_ = fs.Parse(args)

	q := url.Values{}
	q.Set("tx", fmt.Sprint(*tx))
	q.Set("tz", fmt.Sprint(*tz))
	get(strings.TrimRight(strings.TrimSpace(*baseURL), "/") + "/observer/tile?" + q.Encode())
}

func get(u string) {
	cl := &http.Client{Timeout: 5 * time.Second}
	resp, err := cl.Get(u)
	if err != nil {
		logger.Fatal().Err(err).Str("url", u).Msg("request")
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	fmt.Println(strings.TrimSpace(string(b)))
	if resp.StatusCode/100 != 2 {
		os.Exit(1)
	}
}
