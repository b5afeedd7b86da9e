package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/wildwinter/storydeck/internal/config"
	"github.com/wildwinter/storydeck/internal/luaeval"
	"github.com/wildwinter/storydeck/internal/orchestrator"
	"github.com/wildwinter/storydeck/internal/persist"
)

// #region main
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	source, err := os.ReadFile(cfg.ContentPath)
	if err != nil {
		log.Fatalf("failed to read content script %s: %v", cfg.ContentPath, err)
	}
	ev, err := luaeval.New(string(source))
	if err != nil {
		log.Fatalf("failed to load content: %v", err)
	}

	store, err := persist.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	opts := []orchestrator.Option{
		orchestrator.WithBudget(cfg.TickBudget),
		orchestrator.WithDecisionLog(store.DB()),
		orchestrator.WithPoolReady(func(pool string) {
			fmt.Printf("pool %q ready\n", pool)
		}),
	}
	if cfg.Offload {
		opts = append(opts, orchestrator.WithOffload(luaeval.Factory(string(source))))
	}

	orch, err := orchestrator.New(ev, opts...)
	if err != nil {
		log.Fatalf("failed to start engine: %v", err)
	}
	defer orch.Close()

	registered := orch.RegisterDirectives()

	fmt.Println("Storydeck controller ready.")
	fmt.Printf("  Content: %s | DB: %s | Budget: %d | Offload: %v\n",
		cfg.ContentPath, cfg.DBPath, cfg.TickBudget, cfg.Offload)
	fmt.Printf("  %d storylets registered from directives\n", registered)
	fmt.Println("Commands: register refresh tick ready hand pick played reset tag save load quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}
		runCommand(orch, store, cfg, strings.Fields(line))
	}
}

// #endregion main

// #region commands
func runCommand(orch *orchestrator.Orchestrator, store *persist.Store, cfg config.Config, args []string) {
	switch args[0] {
	case "register":
		if len(args) < 2 {
			fmt.Println("usage: register <group> [pool]")
			return
		}
		pool := cfg.DefaultPool
		if len(args) > 2 {
			pool = args[2]
		}
		n := orch.AddStorylets(args[1], pool)
		fmt.Printf("registered %d storylets into %q\n", n, pool)

	case "refresh":
		if err := orch.Refresh(args[1:]...); err != nil {
			fmt.Printf("refresh error: %v\n", err)
		}

	case "tick":
		completed := orch.Tick()
		if len(completed) > 0 {
			fmt.Printf("completed: %s\n", strings.Join(completed, ", "))
		}

	case "ready":
		fmt.Printf("all ready: %v\n", orch.AllReady())

	case "hand":
		pool := poolArg(args, cfg)
		hand, err := orch.Hand(pool)
		if err != nil {
			fmt.Printf("hand error: %v\n", err)
			return
		}
		fmt.Printf("%s: %s\n", pool, strings.Join(hand, ", "))

	case "pick":
		id, err := orch.Pick(poolArg(args, cfg))
		if err != nil {
			fmt.Printf("pick error: %v\n", err)
			return
		}
		fmt.Println(id)

	case "played":
		if len(args) < 2 {
			fmt.Println("usage: played <id> [pools...]")
			return
		}
		orch.MarkPlayed(args[1], args[2:]...)

	case "reset":
		orch.Reset(args[1:]...)
		fmt.Println("reset")

	case "tag":
		if len(args) < 3 {
			fmt.Println("usage: tag <id> <key>")
			return
		}
		fmt.Printf("%v\n", orch.GetTag(args[1], args[2], "<unset>"))

	case "save":
		blob, err := orch.Save()
		if err != nil {
			fmt.Printf("save error: %v\n", err)
			return
		}
		label := ""
		if len(args) > 1 {
			label = args[1]
		}
		id, err := store.SaveSnapshot(label, blob)
		if err != nil {
			fmt.Printf("snapshot error: %v\n", err)
			return
		}
		fmt.Printf("saved snapshot %s\n", id)

	case "load":
		var rec persist.SnapshotRecord
		var err error
		if len(args) > 1 {
			rec, err = store.GetSnapshot(args[1])
		} else {
			rec, err = store.LatestSnapshot()
		}
		if err != nil {
			fmt.Printf("snapshot error: %v\n", err)
			return
		}
		if err := orch.Load(rec.PlayState); err != nil {
			fmt.Printf("load error: %v\n", err)
			return
		}
		fmt.Printf("loaded snapshot %s\n", rec.SnapshotID)

	default:
		fmt.Printf("unknown command %q\n", args[0])
	}
}

func poolArg(args []string, cfg config.Config) string {
	if len(args) > 1 {
		return args[1]
	}
	return cfg.DefaultPool
}

// #endregion commands
