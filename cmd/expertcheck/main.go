// Command expertcheck asks every configured expert a single prompt and
// prints what each one answered. Nothing is persisted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/jeefy/llmmoe/internal/config"
	"github.com/jeefy/llmmoe/internal/expert"
)

func main() {
	prompt := flag.String("prompt", "Reply with the single word: pong", "prompt sent to every expert")
	flag.Parse()
	if rest := strings.TrimSpace(strings.Join(flag.Args(), " ")); rest != "" {
		*prompt = rest
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	failed := 0
	for i, e := range expert.NewSet(cfg.Experts) {
		ans := expert.Ask(context.Background(), e, *prompt)
		if ans.Err != nil {
			failed++
		}
		fmt.Printf("expert%d %s (%s): %s\n", i+1, e.Name(), e.Model(), ans.Display())
	}
	if failed > 0 {
		log.Fatalf("%d of 3 experts failed", failed)
	}
}
