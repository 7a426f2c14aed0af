package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/websocket"

	"trailmark/internal/travel"
	"trailmark/pkg/models"
)

const defaultBaseURL = "http://localhost:8080"

type sessionData struct {
	Token string `json:"token"`
}

func main() {
	global := flag.NewFlagSet("travel", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "gateway base URL")
	dataDir := global.String("data", defaultDataDir(), "local data directory")
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
	if len(args) > 1 {
		sub = args[1]
	}

	client := travel.NewGatewayClient(*baseURL)
	if token, err := readSession(sessionPath(*dataDir)); err == nil && token != "" {
		client.SetSessionToken(token)
	}

	switch cmd {
	case "auth":
		handleAuth(ctx, client, *dataDir, sub, args[2:])
	case "list":
		handleList(ctx, client, *dataDir, sub)
	case "toggle":
		handleToggle(ctx, client, *dataDir, sub, args[2:])
	case "update":
		handleUpdate(ctx, client, *dataDir, args[1:])
	case "count":
		handleCount(ctx, client, *dataDir, sub)
	case "clear":
		handleClear(ctx, client, *dataDir, sub)
	case "sync":
		handleSync(sub, args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
}

func newCoordinator(ctx context.Context, client *travel.GatewayClient, dataDir string) *travel.Coordinator {
	kv, err := travel.NewFileKV(dataDir)
	if err != nil {
		log.Fatalf("open local store: %v", err)
	}
	co := travel.NewCoordinator(client, kv, loginNavigator{dataDir: dataDir})
	co.Load(ctx)
	return co
}

// loginNavigator is the CLI's stand-in for a browser redirect: it drops the
// saved session and tells the user to log in again.
type loginNavigator struct {
	dataDir string
}

func (n loginNavigator) ToLogin() {
	_ = os.Remove(sessionPath(n.dataDir))
	fmt.Println("session expired, please run: travel auth login")
}

func handleAuth(ctx context.Context, client *travel.GatewayClient, dataDir, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		identifier := fs.String("user", "", "email or username")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)

		if *identifier == "" || *password == "" {
			log.Fatal("user and password are required")
		}
		if err := client.Login(ctx, *identifier, *password); err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveSession(sessionPath(dataDir), client.SessionToken()); err != nil {
			log.Fatalf("save session: %v", err)
		}
		fmt.Println("✅ logged in")
	case "logout":
		if err := client.Logout(ctx); err != nil {
			log.Printf("logout: %v", err)
		}
		_ = os.Remove(sessionPath(dataDir))
		fmt.Println("✅ logged out")
	case "me":
		profile, err := client.Profile(ctx)
		if err != nil {
			log.Fatalf("profile failed: %v", err)
		}
		printJSON(profile)
	case "change-password":
		fs := flag.NewFlagSet("auth change-password", flag.ExitOnError)
		current := fs.String("current", "", "current password")
		next := fs.String("new", "", "new password")
		_ = fs.Parse(args)

		if *current == "" || *next == "" {
			log.Fatal("current and new passwords are required")
		}
		if err := client.ChangePassword(ctx, *current, *next); err != nil {
			log.Fatalf("change password failed: %v", err)
		}
		fmt.Println("✅ password updated (sessions invalidated, please login again)")
		_ = os.Remove(sessionPath(dataDir))
	default:
		log.Fatal("usage: travel auth login|logout|me|change-password")
	}
}

func handleList(ctx context.Context, client *travel.GatewayClient, dataDir, sub string) {
	cat := travel.Category(sub)
	if !cat.Valid() {
		log.Fatalf("unknown category %q (want one of %v)", sub, travel.Categories())
	}

	co := newCoordinator(ctx, client, dataDir)

	mark := func(visited bool) string {
		if visited {
			return "✅"
		}
		return "  "
	}

	switch cat {
	case travel.CategoryCountries:
		items, err := client.Countries(ctx)
		if err != nil {
			log.Fatalf("list countries: %v", err)
		}
		for _, it := range items {
			line := fmt.Sprintf("%s %s  %s", mark(co.IsVisited(cat, travel.Item{ID: it.ID, Code: it.Code})), it.Code, it.Name)
			if date, ok := co.CountryVisitDate(it.Code); ok {
				line += "  (" + date + ")"
			}
			fmt.Println(line)
		}
	case travel.CategoryNationalParks:
		items, err := client.Parks(ctx)
		if err != nil {
			log.Fatalf("list parks: %v", err)
		}
		for _, it := range items {
			fmt.Printf("%s %s  %s\n", mark(co.IsVisited(cat, travel.Item{ID: it.Code})), it.Code, it.Name)
		}
	case travel.CategoryUSStates:
		items, err := client.USStates(ctx)
		if err != nil {
			log.Fatalf("list states: %v", err)
		}
		for _, it := range items {
			fmt.Printf("%s %s  %s\n", mark(co.IsVisited(cat, travel.Item{ID: it.Code})), it.Code, it.Name)
		}
	case travel.CategoryMLBBallparks, travel.CategoryNFLStadiums:
		var items []models.Stadium
		var err error
		if cat == travel.CategoryMLBBallparks {
			items, err = client.Ballparks(ctx)
		} else {
			items, err = client.NFLStadiums(ctx)
		}
		if err != nil {
			log.Fatalf("list stadiums: %v", err)
		}
		for _, it := range items {
			fmt.Printf("%s %s  %s (%s)\n", mark(co.IsVisited(cat, travel.Item{ID: it.ID})), it.ID, it.Name, it.Team)
		}
	}
}

func handleToggle(ctx context.Context, client *travel.GatewayClient, dataDir, sub string, args []string) {
	cat := travel.Category(sub)
	if !cat.Valid() {
		log.Fatalf("unknown category %q (want one of %v)", sub, travel.Categories())
	}

	fs := flag.NewFlagSet("toggle", flag.ExitOnError)
	id := fs.String("id", "", "item id")
	code := fs.String("code", "", "item code (countries, parks)")
	date := fs.String("date", "", "visit date YYYY-MM-DD (countries only)")
	notes := fs.String("notes", "", "notes (countries only)")
	_ = fs.Parse(args)

	item := travel.Item{ID: *id, Code: *code}
	if cat == travel.CategoryCountries {
		item.Code = strings.ToUpper(item.Code)
	} else if item.ID == "" {
		item.ID = *code
	}

	var meta *models.VisitMeta
	if *date != "" || *notes != "" {
		meta = &models.VisitMeta{}
		if *date != "" {
			meta.VisitDate = date
		}
		if *notes != "" {
			meta.Notes = notes
		}
	}

	co := newCoordinator(ctx, client, dataDir)
	if err := co.ToggleVisited(ctx, cat, item, meta); err != nil {
		log.Fatalf("toggle failed: %v", err)
	}

	key := cat.Key(item)
	if co.IsVisited(cat, item) {
		fmt.Printf("✅ %s marked visited in %s\n", key, cat)
	} else {
		fmt.Printf("⬜ %s unmarked in %s\n", key, cat)
	}
}

func handleUpdate(ctx context.Context, client *travel.GatewayClient, dataDir string, args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	code := fs.String("code", "", "country code")
	date := fs.String("date", "", `visit date YYYY-MM-DD ("" clears when -clear-date set)`)
	notes := fs.String("notes", "", "notes")
	clearDate := fs.Bool("clear-date", false, "clear the visit date")
	clearNotes := fs.Bool("clear-notes", false, "clear the notes")
	_ = fs.Parse(args)

	if *code == "" {
		log.Fatal("code is required")
	}

	var meta models.VisitMeta
	empty := ""
	switch {
	case *clearDate:
		meta.VisitDate = &empty
	case *date != "":
		meta.VisitDate = date
	}
	switch {
	case *clearNotes:
		meta.Notes = &empty
	case *notes != "":
		meta.Notes = notes
	}
	if meta.VisitDate == nil && meta.Notes == nil {
		log.Fatal("nothing to update")
	}

	co := newCoordinator(ctx, client, dataDir)
	if err := co.UpdateCountryVisit(ctx, strings.ToUpper(*code), meta); err != nil {
		log.Fatalf("update failed: %v", err)
	}
	fmt.Println("✅ updated")
}

func handleCount(ctx context.Context, client *travel.GatewayClient, dataDir, sub string) {
	co := newCoordinator(ctx, client, dataDir)

	cats := travel.Categories()
	if sub != "" {
		cat := travel.Category(sub)
		if !cat.Valid() {
			log.Fatalf("unknown category %q", sub)
		}
		cats = []travel.Category{cat}
	}
	for _, cat := range cats {
		fmt.Printf("%-16s %d\n", cat, co.VisitedCount(cat))
	}
}

func handleClear(ctx context.Context, client *travel.GatewayClient, dataDir, sub string) {
	cat := travel.Category(sub)
	if !cat.Valid() {
		log.Fatalf("unknown category %q (want one of %v)", sub, travel.Categories())
	}

	co := newCoordinator(ctx, client, dataDir)
	if err := co.ClearCategory(ctx, cat); err != nil {
		log.Fatalf("clear failed: %v", err)
	}
	fmt.Printf("✅ cleared %s\n", cat)
}

func handleSync(sub string, args []string) {
	switch sub {
	case "listen":
		fs := flag.NewFlagSet("sync listen", flag.ExitOnError)
		tcpAddr := fs.String("tcp", "", "TCP sync address (e.g. localhost:7070)")
		wsURL := fs.String("ws", "ws://localhost:8090/ws", "websocket sync URL")
		pretty := fs.Bool("pretty", false, "pretty-print events")
		_ = fs.Parse(args)

		if *tcpAddr != "" {
			if err := runSyncTCP(*tcpAddr, *pretty); err != nil {
				log.Fatalf("sync listen: %v", err)
			}
			return
		}
		if err := runWebSocket(*wsURL); err != nil {
			log.Fatalf("sync listen: %v", err)
		}
	default:
		log.Fatal("usage: travel sync listen [-tcp addr] [-ws url] [-pretty]")
	}
}

func runSyncTCP(addr string, pretty bool) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[sync] connected to %s", addr)
	reader := bufio.NewScanner(conn)
	for reader.Scan() {
		line := reader.Bytes()
		if !pretty {
			fmt.Println(string(line))
			continue
		}
		var obj map[string]any
		if err := json.Unmarshal(line, &obj); err != nil {
			fmt.Println(string(line))
			continue
		}
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := reader.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[sync] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Println(string(msg))
	}
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.trailmark"
	}
	return filepath.Join(home, ".trailmark")
}

func sessionPath(dataDir string) string {
	return filepath.Join(dataDir, "session.json")
}

func saveSession(path, token string) error {
	if token == "" {
		return errors.New("empty session token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sessionData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readSession(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var sd sessionData
	if err := json.Unmarshal(data, &sd); err != nil {
		return "", err
	}
	return strings.TrimSpace(sd.Token), nil
}

func printUsage() {
	fmt.Println("travel <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|logout|me|change-password")
	fmt.Println("  list <category>")
	fmt.Println("  toggle <category> -id|-code [...]")
	fmt.Println("  update -code CC [-date|-notes|-clear-date|-clear-notes]")
	fmt.Println("  count [category]")
	fmt.Println("  clear <category>")
	fmt.Println("  sync listen")
	fmt.Printf("categories: %v\n", travel.Categories())
}
