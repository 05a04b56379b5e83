package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

const defaultBaseURL = "http://localhost:8080"

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type trendResponse struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Points       []struct {
		Year     int      `json:"year"`
		USDPrice float64  `json:"usd_price"`
		NGNPrice *float64 `json:"ngn_price"`
	} `json:"points"`
	Rate struct {
		Quote string  `json:"quote"`
		Value float64 `json:"value"`
	} `json:"rate"`
}

func main() {
	global := flag.NewFlagSet("cardash", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	rest := []string{}
	if len(args) > 1 {
		sub = args[1]
		rest = args[2:]
	}

	client := &http.Client{Timeout: 15 * time.Second}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *baseURL, *tokenPath, sub, rest)
	case "listings":
		handleListings(ctx, client, *baseURL, sub, rest)
	case "rate":
		handleRate(ctx, client, *baseURL, *tokenPath, sub, rest)
	case "predict":
		handlePredict(ctx, client, *baseURL, args[1:])
	case "admin":
		handleAdmin(ctx, client, *baseURL, *tokenPath, sub)
	case "feed":
		handleFeed(*baseURL, sub, rest)
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		password := fs.String("password", os.Getenv("CARDASH_ADMIN_PASSWORD"), "admin password")
		_ = fs.Parse(args)
		if *password == "" {
			log.Fatal("password is required")
		}

		var resp loginResponse
		payload := map[string]string{"password": *password}
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/auth/login", "", payload, &resp); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, resp.Token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Printf("logged in until %s\n", resp.ExpiresAt.Local().Format(time.RFC1123))
	case "logout":
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: cardash auth <login|logout>")
	}
}

func handleListings(ctx context.Context, client *http.Client, baseURL, sub string, args []string) {
	switch sub {
	case "manufacturers":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/listings/manufacturers", "", nil, &resp); err != nil {
			log.Fatalf("manufacturers failed: %v", err)
		}
		printJSON(resp)
	case "models":
		fs := flag.NewFlagSet("listings models", flag.ExitOnError)
		manufacturer := fs.String("manufacturer", "", "manufacturer (any case)")
		_ = fs.Parse(args)
		if *manufacturer == "" {
			log.Fatal("manufacturer is required")
		}

		var resp map[string]any
		endpoint := baseURL + "/listings/manufacturers/" + url.PathEscape(*manufacturer) + "/models"
		if err := doJSON(ctx, client, http.MethodGet, endpoint, "", nil, &resp); err != nil {
			log.Fatalf("models failed: %v", err)
		}
		printJSON(resp)
	case "trend":
		fs := flag.NewFlagSet("listings trend", flag.ExitOnError)
		manufacturer := fs.String("manufacturer", "", "manufacturer (any case)")
		model := fs.String("model", "", "model, exactly as listed")
		raw := fs.Bool("json", false, "print the raw JSON response")
		_ = fs.Parse(args)
		if *manufacturer == "" || *model == "" {
			log.Fatal("manufacturer and model are required")
		}

		var resp trendResponse
		if err := doJSON(ctx, client, http.MethodGet, trendURL(baseURL, *manufacturer, *model), "", nil, &resp); err != nil {
			log.Fatalf("trend failed: %v", err)
		}
		if *raw {
			printJSON(resp)
			return
		}
		printTrend(os.Stdout, resp)
	case "stats":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/listings/stats", "", nil, &resp); err != nil {
			log.Fatalf("stats failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: cardash listings <manufacturers|models|trend|stats>")
	}
}

func handleRate(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string, args []string) {
	switch sub {
	case "", "show":
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodGet, baseURL+"/rate", "", nil, &resp); err != nil {
			log.Fatalf("rate failed: %v", err)
		}
		printJSON(resp)
	case "history":
		fs := flag.NewFlagSet("rate history", flag.ExitOnError)
		limit := fs.Int("limit", 24, "number of entries")
		_ = fs.Parse(args)

		var resp map[string]any
		endpoint := baseURL + "/rate/history?limit=" + strconv.Itoa(*limit)
		if err := doJSON(ctx, client, http.MethodGet, endpoint, "", nil, &resp); err != nil {
			log.Fatalf("rate history failed: %v", err)
		}
		printJSON(resp)
	case "refresh":
		token := mustToken(tokenPath)
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/admin/rate/refresh", token, nil, &resp); err != nil {
			log.Fatalf("rate refresh failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: cardash rate <show|history|refresh>")
	}
}

func handlePredict(ctx context.Context, client *http.Client, baseURL string, args []string) {
	fs := flag.NewFlagSet("predict", flag.ExitOnError)
	manufacturer := fs.String("manufacturer", "", "manufacturer (any case)")
	model := fs.String("model", "", "model, exactly as listed")
	year := fs.Int("year", time.Now().Year(), "year to estimate")
	_ = fs.Parse(args)
	if *manufacturer == "" || *model == "" {
		log.Fatal("manufacturer and model are required")
	}

	payload := map[string]any{"manufacturer": *manufacturer, "model": *model, "year": *year}
	var resp map[string]any
	if err := doJSON(ctx, client, http.MethodPost, baseURL+"/predict", "", payload, &resp); err != nil {
		log.Fatalf("predict failed: %v", err)
	}
	printJSON(resp)
}

func handleAdmin(ctx context.Context, client *http.Client, baseURL, tokenPath, sub string) {
	switch sub {
	case "reload":
		token := mustToken(tokenPath)
		var resp map[string]any
		if err := doJSON(ctx, client, http.MethodPost, baseURL+"/admin/reload", token, nil, &resp); err != nil {
			log.Fatalf("reload failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: cardash admin reload")
	}
}

func handleFeed(baseURL, sub string, args []string) {
	switch sub {
	case "tcp":
		fs := flag.NewFlagSet("feed tcp", flag.ExitOnError)
		addr := fs.String("addr", "127.0.0.1:7070", "TCP feed address")
		_ = fs.Parse(args)
		if err := listenTCP(*addr); err != nil {
			log.Fatalf("feed failed: %v", err)
		}
	case "ws":
		wsURL, err := websocketURL(baseURL, "/ws")
		if err != nil {
			log.Fatalf("invalid base url: %v", err)
		}
		if err := listenWS(wsURL); err != nil {
			log.Fatalf("feed failed: %v", err)
		}
	default:
		log.Fatal("usage: cardash feed <tcp|ws>")
	}
}

func listenTCP(addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[feed] connected to %s", addr)
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		printEvent(sc.Bytes())
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func listenWS(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Printf("[feed] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		printEvent(msg)
	}
}

func printEvent(line []byte) {
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		fmt.Println(string(line))
		return
	}
	printJSON(obj)
}

func printUsage() {
	fmt.Println("cardash [-api URL] [-token PATH] <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|logout")
	fmt.Println("  listings manufacturers|models|trend|stats")
	fmt.Println("  rate show|history|refresh")
	fmt.Println("  predict -manufacturer M -model X -year Y")
	fmt.Println("  admin reload")
	fmt.Println("  feed tcp|ws")
}
