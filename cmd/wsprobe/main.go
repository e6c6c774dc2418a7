// wsprobe connects to a running ratesd instance and streams frames to the
// console. Usage:
//
//	go run ./cmd/wsprobe --addr localhost:8080            # list assets
//	go run ./cmd/wsprobe --addr localhost:8080 --asset 1  # subscribe
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "ratesd websocket address")
	asset := flag.Int64("asset", 0, "asset id to subscribe to (0 = list assets only)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	url := "ws://" + *addr + "/"
	logger.Info("connecting", "url", url)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		logger.Error("dial failed", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	request := `{"action": "assets", "message": {}}`
	if *asset > 0 {
		request = fmt.Sprintf(`{"action": "subscribe", "message": {"assetId": %d}}`, *asset)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(request)); err != nil {
		logger.Error("write failed", "error", err)
		os.Exit(1)
	}
	logger.Info("request sent", "request", request)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("closed")
				return
			}
			logger.Error("read failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(string(data))

		// A plain asset listing is a single reply.
		if *asset == 0 {
			return
		}
	}
}
